package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/installment"
	"github.com/backoffice/settlement/internal/domain/shared"
)

// PlanModel is the persistence model for the installment Plan aggregate.
type PlanModel struct {
	CompanyAggregateModel
	InvoiceID       uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_plan_company_invoice,priority:2"`
	CustomerID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	TotalAmount     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	RemainingAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Status          installment.PlanStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Installments    []InstallmentModel     `gorm:"foreignKey:PlanID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "installment_plans"
}

// ToDomain converts the persistence model to a domain Plan aggregate.
func (m *PlanModel) ToDomain() *installment.Plan {
	plan := &installment.Plan{
		InvoiceID:       m.InvoiceID,
		CustomerID:      m.CustomerID,
		TotalAmount:     m.TotalAmount,
		RemainingAmount: m.RemainingAmount,
		Status:          m.Status,
	}
	m.PopulateCompanyAggregateRoot(&plan.CompanyAggregateRoot)
	plan.Installments = make([]installment.Installment, len(m.Installments))
	for i := range m.Installments {
		plan.Installments[i] = *m.Installments[i].ToDomain()
	}
	return plan
}

// FromDomain populates the persistence model from a domain Plan aggregate.
func (m *PlanModel) FromDomain(plan *installment.Plan) {
	m.FromDomainCompanyAggregateRoot(plan.CompanyAggregateRoot)
	m.InvoiceID = plan.InvoiceID
	m.CustomerID = plan.CustomerID
	m.TotalAmount = plan.TotalAmount
	m.RemainingAmount = plan.RemainingAmount
	m.Status = plan.Status
	m.Installments = make([]InstallmentModel, len(plan.Installments))
	for i := range plan.Installments {
		m.Installments[i].FromDomain(&plan.Installments[i])
	}
}

// PlanModelFromDomain creates a new persistence model from a domain Plan aggregate.
func PlanModelFromDomain(plan *installment.Plan) *PlanModel {
	m := &PlanModel{}
	m.FromDomain(plan)
	return m
}

// InstallmentModel is the persistence model for a single scheduled
// installment.
type InstallmentModel struct {
	BaseModel
	PlanID          uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_installment_plan_seq,priority:1"`
	Sequence        int                           `gorm:"not null;uniqueIndex:idx_installment_plan_seq,priority:2"`
	Amount          decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	RemainingAmount decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	DueDate         time.Time                     `gorm:"not null;index"`
	Status          installment.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAt          *time.Time                    `gorm:""`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment entity.
func (m *InstallmentModel) ToDomain() *installment.Installment {
	return &installment.Installment{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PlanID:          m.PlanID,
		Sequence:        m.Sequence,
		Amount:          m.Amount,
		RemainingAmount: m.RemainingAmount,
		DueDate:         m.DueDate,
		Status:          m.Status,
		PaidAt:          m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Installment entity.
func (m *InstallmentModel) FromDomain(ins *installment.Installment) {
	m.FromDomainBaseEntity(ins.BaseEntity)
	m.PlanID = ins.PlanID
	m.Sequence = ins.Sequence
	m.Amount = ins.Amount
	m.RemainingAmount = ins.RemainingAmount
	m.DueDate = ins.DueDate
	m.Status = ins.Status
	m.PaidAt = ins.PaidAt
}
