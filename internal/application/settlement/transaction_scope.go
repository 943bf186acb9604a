package settlement

import (
	"context"

	"github.com/backoffice/settlement/internal/domain/installment"
	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/stock"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

// TransactionScope provides transactional access to the settlement
// repositories. When a function runs within a scope, every repository
// operation joins the same database transaction and commits or rolls
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all settlement
// repositories within one transaction. All repositories returned share
// the same underlying database transaction.
//
// Aggregate boundary notes:
//   - InvoiceRepo: invoices load and save with their items attached.
//   - LotRepo: lots are shared across documents; FindForAllocation
//     locks the rows so concurrent settlements of the same variant
//     serialize.
//   - CashBoxRepo / LedgerRepo: every balance change on a box pairs
//     with exactly one appended ledger transaction inside the scope.
//   - PlanRepo: plans load with their installments; derived plan
//     fields change only through the reconciler.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() invoicing.Repository
	// LotRepo returns the stock lot repository scoped to the current transaction
	LotRepo() stock.LotRepository
	// CashBoxRepo returns the cash box repository scoped to the current transaction
	CashBoxRepo() treasury.CashBoxRepository
	// LedgerRepo returns the ledger transaction repository scoped to the current transaction
	LedgerRepo() treasury.TransactionRepository
	// PlanRepo returns the installment plan repository scoped to the current transaction
	PlanRepo() installment.PlanRepository
}

// NoOpTransactionScope runs the scope function without a real
// transaction. Useful for tests and tools that work on in-memory
// repositories.
type NoOpTransactionScope struct {
	invoiceRepo invoicing.Repository
	lotRepo     stock.LotRepository
	cashBoxRepo treasury.CashBoxRepository
	ledgerRepo  treasury.TransactionRepository
	planRepo    installment.PlanRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo invoicing.Repository,
	lotRepo stock.LotRepository,
	cashBoxRepo treasury.CashBoxRepository,
	ledgerRepo treasury.TransactionRepository,
	planRepo installment.PlanRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		lotRepo:     lotRepo,
		cashBoxRepo: cashBoxRepo,
		ledgerRepo:  ledgerRepo,
		planRepo:    planRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() invoicing.Repository {
	return s.invoiceRepo
}

// LotRepo returns the stock lot repository.
func (s *NoOpTransactionScope) LotRepo() stock.LotRepository {
	return s.lotRepo
}

// CashBoxRepo returns the cash box repository.
func (s *NoOpTransactionScope) CashBoxRepo() treasury.CashBoxRepository {
	return s.cashBoxRepo
}

// LedgerRepo returns the ledger transaction repository.
func (s *NoOpTransactionScope) LedgerRepo() treasury.TransactionRepository {
	return s.ledgerRepo
}

// PlanRepo returns the installment plan repository.
func (s *NoOpTransactionScope) PlanRepo() installment.PlanRepository {
	return s.planRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
