package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// Repository defines the persistence operations for invoices.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, companyID uuid.UUID, number string) (*Invoice, error)
	FindByCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]*Invoice, error)
	// FindUnaggregated returns confirmed or settled documents that have
	// not yet been counted into the daily summaries.
	FindUnaggregated(ctx context.Context, companyID uuid.UUID, limit int) ([]*Invoice, error)
	// FindByIssueDate returns all documents issued on the given day.
	FindByIssueDate(ctx context.Context, companyID uuid.UUID, day time.Time) ([]*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
}
