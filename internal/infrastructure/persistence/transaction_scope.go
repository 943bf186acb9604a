package persistence

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/backoffice/settlement/internal/application/settlement"
	"github.com/backoffice/settlement/internal/domain/installment"
	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/stock"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

// GormTransactionScope implements settlement.TransactionScope using GORM
// transactions. Every repository handed to the scope function joins the
// same database transaction.
type GormTransactionScope struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, passed through to the invoice repository
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// SetOutboxEventSaver makes invoice saves inside the scope write their
// pending events to the outbox within the same transaction
func (s *GormTransactionScope) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	s.outboxSaver = saver
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos settlement.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outboxSaver: s.outboxSaver})
	})
	if err != nil && isSerializationFailure(err) {
		return shared.ErrConsistencyConflict.WithMessagef("transaction aborted by a concurrent settlement: %v", err)
	}
	return err
}

// isSerializationFailure detects lock timeouts, deadlocks and
// serialization aborts so callers can retry instead of failing hard.
func isSerializationFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "lock wait timeout")
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() invoicing.Repository {
	repo := NewGormInvoiceRepository(r.tx)
	if r.outboxSaver != nil {
		repo.SetOutboxEventSaver(r.outboxSaver)
	}
	return repo
}

// LotRepo returns the stock lot repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LotRepo() stock.LotRepository {
	return NewGormLotRepository(r.tx)
}

// CashBoxRepo returns the cash box repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CashBoxRepo() treasury.CashBoxRepository {
	return NewGormCashBoxRepository(r.tx)
}

// LedgerRepo returns the ledger transaction repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() treasury.TransactionRepository {
	return NewGormLedgerTransactionRepository(r.tx)
}

// PlanRepo returns the installment plan repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PlanRepo() installment.PlanRepository {
	return NewGormPlanRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ settlement.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ settlement.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
