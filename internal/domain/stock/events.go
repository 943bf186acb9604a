package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeLot = "StockLot"

// Event type constants
const (
	EventTypeStockDeducted = "StockDeducted"
	EventTypeStockReturned = "StockReturned"
)

// StockDeductedEvent is raised after quantities were taken from lots
// for a settled document
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Allocations []Allocation    `json:"allocations"`
}

// NewStockDeductedEvent creates a new StockDeductedEvent
func NewStockDeductedEvent(companyID, productID, warehouseID uuid.UUID, variantID *uuid.UUID, quantity decimal.Decimal, allocations []Allocation) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, AggregateTypeLot, productID, companyID),
		ProductID:       productID,
		VariantID:       variantID,
		WarehouseID:     warehouseID,
		Quantity:        quantity,
		Allocations:     allocations,
	}
}

// EventType returns the event type name
func (e *StockDeductedEvent) EventType() string {
	return EventTypeStockDeducted
}

// StockReturnedEvent is raised after quantities were put back onto lots
type StockReturnedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	LotID       uuid.UUID       `json:"lot_id"`
}

// NewStockReturnedEvent creates a new StockReturnedEvent
func NewStockReturnedEvent(companyID, productID, warehouseID uuid.UUID, variantID *uuid.UUID, quantity decimal.Decimal, lotID uuid.UUID) *StockReturnedEvent {
	return &StockReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReturned, AggregateTypeLot, productID, companyID),
		ProductID:       productID,
		VariantID:       variantID,
		WarehouseID:     warehouseID,
		Quantity:        quantity,
		LotID:           lotID,
	}
}

// EventType returns the event type name
func (e *StockReturnedEvent) EventType() string {
	return EventTypeStockReturned
}
