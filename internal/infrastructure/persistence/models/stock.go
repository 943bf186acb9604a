package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/stock"
)

// LotModel is the persistence model for a stock lot.
type LotModel struct {
	BaseModel
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_lot_variant,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_lot_variant,priority:2"`
	VariantID   *uuid.UUID      `gorm:"type:uuid;index:idx_lot_variant,priority:3"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index:idx_lot_variant,priority:4"`
	LotNumber   string          `gorm:"type:varchar(100)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status      stock.LotStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index"`
	ExpiryDate  *time.Time      `gorm:"index"`
}

// TableName returns the table name for GORM
func (LotModel) TableName() string {
	return "stock_lots"
}

// ToDomain converts the persistence model to a domain Lot entity.
func (m *LotModel) ToDomain() *stock.Lot {
	return &stock.Lot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		CompanyID:   m.CompanyID,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		WarehouseID: m.WarehouseID,
		LotNumber:   m.LotNumber,
		Quantity:    m.Quantity,
		UnitCost:    m.UnitCost,
		Status:      m.Status,
		ExpiryDate:  m.ExpiryDate,
	}
}

// FromDomain populates the persistence model from a domain Lot entity.
func (m *LotModel) FromDomain(lot *stock.Lot) {
	m.FromDomainBaseEntity(lot.BaseEntity)
	m.CompanyID = lot.CompanyID
	m.ProductID = lot.ProductID
	m.VariantID = lot.VariantID
	m.WarehouseID = lot.WarehouseID
	m.LotNumber = lot.LotNumber
	m.Quantity = lot.Quantity
	m.UnitCost = lot.UnitCost
	m.Status = lot.Status
	m.ExpiryDate = lot.ExpiryDate
}

// LotModelFromDomain creates a new persistence model from a domain Lot entity.
func LotModelFromDomain(lot *stock.Lot) *LotModel {
	m := &LotModel{}
	m.FromDomain(lot)
	return m
}
