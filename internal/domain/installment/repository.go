package installment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlanRepository defines the persistence operations for installment
// plans. Plans load with their installments attached.
type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Plan, error)
	FindByInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) (*Plan, error)
	FindActiveByCustomer(ctx context.Context, companyID, customerID uuid.UUID) ([]*Plan, error)
	// FindWithOverdue returns active plans holding at least one
	// installment past the given due date.
	FindWithOverdue(ctx context.Context, companyID uuid.UUID, asOf time.Time) ([]*Plan, error)
	Save(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id uuid.UUID) error
}
