package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// CashBoxRepository defines the persistence operations for cash boxes.
type CashBoxRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CashBox, error)
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*CashBox, error)
	// FindDefaultForHolder resolves the default box of a holder within
	// a company. Returns shared.ErrNoDefaultCashBox when none is
	// flagged.
	FindDefaultForHolder(ctx context.Context, companyID, holderID uuid.UUID) (*CashBox, error)
	FindByHolder(ctx context.Context, companyID, holderID uuid.UUID) ([]*CashBox, error)
	// FindForUpdate locks the box row for the surrounding transaction.
	FindForUpdate(ctx context.Context, companyID, id uuid.UUID) (*CashBox, error)
	Save(ctx context.Context, box *CashBox) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository defines the persistence operations for ledger
// transactions. Entries are append-only; there is no update or delete.
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByCashBox(ctx context.Context, companyID, cashBoxID uuid.UUID, filter shared.Filter) ([]*Transaction, error)
	FindBySource(ctx context.Context, companyID uuid.UUID, sourceType SourceType, sourceID string) ([]*Transaction, error)
	FindByDateRange(ctx context.Context, companyID, cashBoxID uuid.UUID, from, to time.Time) ([]*Transaction, error)
	Save(ctx context.Context, tx *Transaction) error
	SaveAll(ctx context.Context, txs []*Transaction) error
}
