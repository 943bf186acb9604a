package stock

import (
	"context"

	"github.com/google/uuid"
)

// LotRepository defines the persistence operations for stock lots.
// FindForAllocation takes row locks so concurrent deductions of the
// same variant serialize instead of double-spending.
type LotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	FindByVariant(ctx context.Context, companyID, productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*Lot, error)
	// FindForAllocation behaves like FindByVariant but locks the rows
	// for the duration of the surrounding transaction.
	FindForAllocation(ctx context.Context, companyID, productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*Lot, error)
	Save(ctx context.Context, lot *Lot) error
	SaveAll(ctx context.Context, lots []*Lot) error
	Delete(ctx context.Context, id uuid.UUID) error
}
