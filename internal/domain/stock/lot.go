package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// LotStatus describes whether a lot participates in allocation.
type LotStatus string

const (
	LotAvailable   LotStatus = "AVAILABLE"
	LotUnavailable LotStatus = "UNAVAILABLE"
	LotExpired     LotStatus = "EXPIRED"
)

// Lot is a dated stock quantity of one product variant in one
// warehouse. Allocation order is strictly by CreatedAt, oldest first
// for deductions and newest first for returns.
type Lot struct {
	shared.BaseEntity
	CompanyID   uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	WarehouseID uuid.UUID
	LotNumber   string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Status      LotStatus
	ExpiryDate  *time.Time
}

// NewLot creates an available lot with an initial quantity.
func NewLot(
	companyID, productID, warehouseID uuid.UUID,
	variantID *uuid.UUID,
	lotNumber string,
	quantity, unitCost decimal.Decimal,
) (*Lot, *shared.DomainError) {
	if companyID == uuid.Nil || productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("lot requires company, product and warehouse ids")
	}
	if quantity.IsNegative() {
		return nil, shared.ErrValidation.WithMessagef("lot quantity cannot be negative: %s", quantity)
	}
	if unitCost.IsNegative() {
		return nil, shared.ErrValidation.WithMessagef("lot unit cost cannot be negative: %s", unitCost)
	}

	return &Lot{
		BaseEntity:  shared.NewBaseEntity(),
		CompanyID:   companyID,
		ProductID:   productID,
		VariantID:   variantID,
		WarehouseID: warehouseID,
		LotNumber:   lotNumber,
		Quantity:    quantity,
		UnitCost:    unitCost,
		Status:      LotAvailable,
	}, nil
}

// IsAllocatable reports whether the lot can serve deductions.
func (l *Lot) IsAllocatable() bool {
	return l.Status == LotAvailable && l.Quantity.IsPositive()
}

// IsExpired checks the expiry date against the given reference time.
func (l *Lot) IsExpired(now time.Time) bool {
	return l.ExpiryDate != nil && l.ExpiryDate.Before(now)
}

// Deduct reduces the lot quantity and returns the amount actually
// taken, which may be less than requested when the lot runs dry.
func (l *Lot) Deduct(quantity decimal.Decimal) decimal.Decimal {
	if quantity.GreaterThanOrEqual(l.Quantity) {
		taken := l.Quantity
		l.Quantity = decimal.Zero
		l.Touch()
		return taken
	}
	l.Quantity = l.Quantity.Sub(quantity)
	l.Touch()
	return quantity
}

// Add increases the lot quantity, used for returns and increments.
func (l *Lot) Add(quantity decimal.Decimal) {
	l.Quantity = l.Quantity.Add(quantity)
	l.Touch()
}

// MarkUnavailable withdraws the lot from allocation. Quantity is kept
// so it can be reactivated later.
func (l *Lot) MarkUnavailable() *shared.DomainError {
	if l.Status == LotExpired {
		return shared.ErrInvalidState.WithMessagef("expired lot %s cannot change status", l.LotNumber)
	}
	l.Status = LotUnavailable
	l.Touch()
	return nil
}

// MarkExpired permanently retires the lot from allocation.
func (l *Lot) MarkExpired() {
	l.Status = LotExpired
	l.Touch()
}

// Reactivate returns an unavailable lot to the allocatable pool.
// Expired lots stay expired.
func (l *Lot) Reactivate() *shared.DomainError {
	if l.Status == LotExpired {
		return shared.ErrInvalidState.WithMessagef("expired lot %s cannot be reactivated", l.LotNumber)
	}
	l.Status = LotAvailable
	l.Touch()
	return nil
}

// TotalValue returns the cost value still held in the lot.
func (l *Lot) TotalValue() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}
