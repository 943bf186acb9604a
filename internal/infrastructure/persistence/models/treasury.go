package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

// CashBoxModel is the persistence model for the CashBox aggregate.
type CashBoxModel struct {
	CompanyAggregateModel
	Name      string          `gorm:"type:varchar(128);not null"`
	HolderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsDefault bool            `gorm:"not null;default:false"`
	Active    bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CashBoxModel) TableName() string {
	return "cash_boxes"
}

// ToDomain converts the persistence model to a domain CashBox aggregate.
func (m *CashBoxModel) ToDomain() *treasury.CashBox {
	box := &treasury.CashBox{
		Name:      m.Name,
		HolderID:  m.HolderID,
		Balance:   m.Balance,
		IsDefault: m.IsDefault,
		Active:    m.Active,
	}
	m.PopulateCompanyAggregateRoot(&box.CompanyAggregateRoot)
	return box
}

// FromDomain populates the persistence model from a domain CashBox aggregate.
func (m *CashBoxModel) FromDomain(box *treasury.CashBox) {
	m.FromDomainCompanyAggregateRoot(box.CompanyAggregateRoot)
	m.Name = box.Name
	m.HolderID = box.HolderID
	m.Balance = box.Balance
	m.IsDefault = box.IsDefault
	m.Active = box.Active
}

// CashBoxModelFromDomain creates a new persistence model from a domain CashBox aggregate.
func CashBoxModelFromDomain(box *treasury.CashBox) *CashBoxModel {
	m := &CashBoxModel{}
	m.FromDomain(box)
	return m
}

// LedgerTransactionModel is the persistence model for an immutable
// ledger transaction.
type LedgerTransactionModel struct {
	BaseModel
	CompanyID             uuid.UUID                `gorm:"type:uuid;not null;index"`
	CashBoxID             uuid.UUID                `gorm:"type:uuid;not null;index"`
	Type                  treasury.TransactionType `gorm:"type:varchar(20);not null"`
	Amount                decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	BalanceBefore         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	BalanceAfter          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	SourceType            treasury.SourceType      `gorm:"type:varchar(20);not null;index"`
	SourceID              *string                  `gorm:"type:varchar(100);index"`
	OriginalTransactionID *uuid.UUID               `gorm:"type:uuid"`
	ActorID               uuid.UUID                `gorm:"type:uuid;not null"`
	Reference             string                   `gorm:"type:varchar(64)"`
	Remark                string                   `gorm:"type:varchar(255)"`
	TransactionDate       time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerTransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *LedgerTransactionModel) ToDomain() *treasury.Transaction {
	return &treasury.Transaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		CompanyID:             m.CompanyID,
		CashBoxID:             m.CashBoxID,
		Type:                  m.Type,
		Amount:                m.Amount,
		BalanceBefore:         m.BalanceBefore,
		BalanceAfter:          m.BalanceAfter,
		SourceType:            m.SourceType,
		SourceID:              m.SourceID,
		OriginalTransactionID: m.OriginalTransactionID,
		ActorID:               m.ActorID,
		Reference:             m.Reference,
		Remark:                m.Remark,
		TransactionDate:       m.TransactionDate,
	}
}

// LedgerTransactionModelFromDomain creates a new persistence model from a domain Transaction entity.
func LedgerTransactionModelFromDomain(tx *treasury.Transaction) *LedgerTransactionModel {
	m := &LedgerTransactionModel{}
	m.FromDomainBaseEntity(tx.BaseEntity)
	m.CompanyID = tx.CompanyID
	m.CashBoxID = tx.CashBoxID
	m.Type = tx.Type
	m.Amount = tx.Amount
	m.BalanceBefore = tx.BalanceBefore
	m.BalanceAfter = tx.BalanceAfter
	m.SourceType = tx.SourceType
	m.SourceID = tx.SourceID
	m.OriginalTransactionID = tx.OriginalTransactionID
	m.ActorID = tx.ActorID
	m.Reference = tx.Reference
	m.Remark = tx.Remark
	m.TransactionDate = tx.TransactionDate
	return m
}
