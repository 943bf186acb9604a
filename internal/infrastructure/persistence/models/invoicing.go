package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	CompanyAggregateModel
	InvoiceNumber      string                  `gorm:"type:varchar(64);not null;uniqueIndex:idx_invoice_company_number,priority:2"`
	Kind               invoicing.InvoiceKind   `gorm:"type:varchar(20);not null"`
	CounterpartyID     uuid.UUID               `gorm:"type:uuid;not null;index"`
	CashBoxID          *uuid.UUID              `gorm:"type:uuid"`
	WarehouseID        *uuid.UUID              `gorm:"type:uuid"`
	Status             invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PaymentStatus      invoicing.PaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID'"`
	TaxInclusive       bool                    `gorm:"not null;default:false"`
	TaxRate            *decimal.Decimal        `gorm:"type:decimal(8,4)"`
	RoundStep          *int64                  `gorm:""`
	GrossAmount        decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount      decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax           decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	RoundingAdjustment decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	NetAmount          decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount         decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingAmount    decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	IsAggregated       bool                    `gorm:"not null;default:false;index"`
	IssueDate          time.Time               `gorm:"not null;index"`
	DueDate            *time.Time              `gorm:""`
	Notes              string                  `gorm:"type:text"`
	Items              []InvoiceItemModel      `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		InvoiceNumber:      m.InvoiceNumber,
		Kind:               m.Kind,
		CounterpartyID:     m.CounterpartyID,
		CashBoxID:          m.CashBoxID,
		WarehouseID:        m.WarehouseID,
		Status:             m.Status,
		PaymentStatus:      m.PaymentStatus,
		TaxInclusive:       m.TaxInclusive,
		TaxRate:            m.TaxRate,
		RoundStep:          m.RoundStep,
		GrossAmount:        m.GrossAmount,
		TotalDiscount:      m.TotalDiscount,
		TotalTax:           m.TotalTax,
		RoundingAdjustment: m.RoundingAdjustment,
		NetAmount:          m.NetAmount,
		PaidAmount:         m.PaidAmount,
		RemainingAmount:    m.RemainingAmount,
		IsAggregated:       m.IsAggregated,
		IssueDate:          m.IssueDate,
		DueDate:            m.DueDate,
		Notes:              m.Notes,
	}
	m.PopulateCompanyAggregateRoot(&inv.CompanyAggregateRoot)
	inv.Items = make([]invoicing.InvoiceItem, len(m.Items))
	for i := range m.Items {
		inv.Items[i] = *m.Items[i].ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainCompanyAggregateRoot(inv.CompanyAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.Kind = inv.Kind
	m.CounterpartyID = inv.CounterpartyID
	m.CashBoxID = inv.CashBoxID
	m.WarehouseID = inv.WarehouseID
	m.Status = inv.Status
	m.PaymentStatus = inv.PaymentStatus
	m.TaxInclusive = inv.TaxInclusive
	m.TaxRate = inv.TaxRate
	m.RoundStep = inv.RoundStep
	m.GrossAmount = inv.GrossAmount
	m.TotalDiscount = inv.TotalDiscount
	m.TotalTax = inv.TotalTax
	m.RoundingAdjustment = inv.RoundingAdjustment
	m.NetAmount = inv.NetAmount
	m.PaidAmount = inv.PaidAmount
	m.RemainingAmount = inv.RemainingAmount
	m.IsAggregated = inv.IsAggregated
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Notes = inv.Notes
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i].FromDomain(&inv.Items[i])
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice aggregate.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for a single invoice line.
type InvoiceItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	VariantID   *uuid.UUID      `gorm:"type:uuid"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TracksStock bool            `gorm:"not null;default:false"`
	WarehouseID *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem entity.
func (m *InvoiceItemModel) ToDomain() *invoicing.InvoiceItem {
	return &invoicing.InvoiceItem{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		InvoiceID:   m.InvoiceID,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		Name:        m.Name,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		CostPrice:   m.CostPrice,
		TotalCost:   m.TotalCost,
		Discount:    m.Discount,
		Subtotal:    m.Subtotal,
		TaxRate:     m.TaxRate,
		TaxAmount:   m.TaxAmount,
		Total:       m.Total,
		TracksStock: m.TracksStock,
		WarehouseID: m.WarehouseID,
	}
}

// FromDomain populates the persistence model from a domain InvoiceItem entity.
func (m *InvoiceItemModel) FromDomain(item *invoicing.InvoiceItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.InvoiceID = item.InvoiceID
	m.ProductID = item.ProductID
	m.VariantID = item.VariantID
	m.Name = item.Name
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.CostPrice = item.CostPrice
	m.TotalCost = item.TotalCost
	m.Discount = item.Discount
	m.Subtotal = item.Subtotal
	m.TaxRate = item.TaxRate
	m.TaxAmount = item.TaxAmount
	m.Total = item.Total
	m.TracksStock = item.TracksStock
	m.WarehouseID = item.WarehouseID
}
