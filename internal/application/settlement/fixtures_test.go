package settlement

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/backoffice/settlement/internal/domain/installment"
	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/stock"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

// memStore is a shared in-memory backing store for all repositories.
// The scope built on it serializes Execute calls with one mutex, which
// mirrors the row locking the real persistence layer relies on.
type memStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*invoicing.Invoice
	lots     []*stock.Lot
	boxes    map[uuid.UUID]*treasury.CashBox
	ledger   []*treasury.Transaction
	plans    map[uuid.UUID]*installment.Plan
}

func newMemStore() *memStore {
	return &memStore{
		invoices: make(map[uuid.UUID]*invoicing.Invoice),
		boxes:    make(map[uuid.UUID]*treasury.CashBox),
		plans:    make(map[uuid.UUID]*installment.Plan),
	}
}

// memScope serializes scope functions over the shared store.
type memScope struct {
	store *memStore
}

func (s *memScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(&memRepos{store: s.store})
}

type memRepos struct {
	store *memStore
}

func (r *memRepos) InvoiceRepo() invoicing.Repository        { return &memInvoiceRepo{r.store} }
func (r *memRepos) LotRepo() stock.LotRepository             { return &memLotRepo{r.store} }
func (r *memRepos) CashBoxRepo() treasury.CashBoxRepository  { return &memCashBoxRepo{r.store} }
func (r *memRepos) LedgerRepo() treasury.TransactionRepository { return &memLedgerRepo{r.store} }
func (r *memRepos) PlanRepo() installment.PlanRepository     { return &memPlanRepo{r.store} }

var _ TransactionScope = (*memScope)(nil)

type memInvoiceRepo struct{ store *memStore }

func (r *memInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	if inv, ok := r.store.invoices[id]; ok {
		return inv, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memInvoiceRepo) FindByIDForCompany(_ context.Context, companyID, id uuid.UUID) (*invoicing.Invoice, error) {
	if inv, ok := r.store.invoices[id]; ok && inv.CompanyID == companyID {
		return inv, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memInvoiceRepo) FindByNumber(_ context.Context, companyID uuid.UUID, number string) (*invoicing.Invoice, error) {
	for _, inv := range r.store.invoices {
		if inv.CompanyID == companyID && inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memInvoiceRepo) FindByCompany(_ context.Context, companyID uuid.UUID, _ shared.Filter) ([]*invoicing.Invoice, error) {
	var out []*invoicing.Invoice
	for _, inv := range r.store.invoices {
		if inv.CompanyID == companyID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) FindUnaggregated(_ context.Context, companyID uuid.UUID, limit int) ([]*invoicing.Invoice, error) {
	var out []*invoicing.Invoice
	for _, inv := range r.store.invoices {
		if inv.CompanyID == companyID && !inv.IsAggregated && inv.Status != invoicing.StatusDraft {
			out = append(out, inv)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) FindByIssueDate(_ context.Context, companyID uuid.UUID, day time.Time) ([]*invoicing.Invoice, error) {
	var out []*invoicing.Invoice
	for _, inv := range r.store.invoices {
		if inv.CompanyID == companyID &&
			inv.IssueDate.Year() == day.Year() && inv.IssueDate.YearDay() == day.YearDay() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) Save(_ context.Context, inv *invoicing.Invoice) error {
	r.store.invoices[inv.ID] = inv
	return nil
}

func (r *memInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.invoices, id)
	return nil
}

type memLotRepo struct{ store *memStore }

func (r *memLotRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.Lot, error) {
	for _, lot := range r.store.lots {
		if lot.ID == id {
			return lot, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLotRepo) FindByVariant(_ context.Context, companyID, productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*stock.Lot, error) {
	var out []*stock.Lot
	for _, lot := range r.store.lots {
		if lot.CompanyID != companyID || lot.ProductID != productID || lot.WarehouseID != warehouseID {
			continue
		}
		if (variantID == nil) != (lot.VariantID == nil) {
			continue
		}
		if variantID != nil && *variantID != *lot.VariantID {
			continue
		}
		out = append(out, lot)
	}
	return out, nil
}

func (r *memLotRepo) FindForAllocation(ctx context.Context, companyID, productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*stock.Lot, error) {
	return r.FindByVariant(ctx, companyID, productID, variantID, warehouseID)
}

func (r *memLotRepo) Save(_ context.Context, lot *stock.Lot) error {
	for _, existing := range r.store.lots {
		if existing.ID == lot.ID {
			return nil
		}
	}
	r.store.lots = append(r.store.lots, lot)
	return nil
}

func (r *memLotRepo) SaveAll(ctx context.Context, lots []*stock.Lot) error {
	for _, lot := range lots {
		if err := r.Save(ctx, lot); err != nil {
			return err
		}
	}
	return nil
}

func (r *memLotRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, lot := range r.store.lots {
		if lot.ID == id {
			r.store.lots = append(r.store.lots[:i], r.store.lots[i+1:]...)
			return nil
		}
	}
	return nil
}

type memCashBoxRepo struct{ store *memStore }

func (r *memCashBoxRepo) FindByID(_ context.Context, id uuid.UUID) (*treasury.CashBox, error) {
	if box, ok := r.store.boxes[id]; ok {
		return box, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memCashBoxRepo) FindByIDForCompany(_ context.Context, companyID, id uuid.UUID) (*treasury.CashBox, error) {
	if box, ok := r.store.boxes[id]; ok && box.CompanyID == companyID {
		return box, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memCashBoxRepo) FindDefaultForHolder(_ context.Context, companyID, holderID uuid.UUID) (*treasury.CashBox, error) {
	for _, box := range r.store.boxes {
		if box.CompanyID == companyID && box.HolderID == holderID && box.IsDefault {
			return box, nil
		}
	}
	return nil, shared.ErrNoDefaultCashBox
}

func (r *memCashBoxRepo) FindByHolder(_ context.Context, companyID, holderID uuid.UUID) ([]*treasury.CashBox, error) {
	var out []*treasury.CashBox
	for _, box := range r.store.boxes {
		if box.CompanyID == companyID && box.HolderID == holderID {
			out = append(out, box)
		}
	}
	return out, nil
}

func (r *memCashBoxRepo) FindForUpdate(ctx context.Context, companyID, id uuid.UUID) (*treasury.CashBox, error) {
	return r.FindByIDForCompany(ctx, companyID, id)
}

func (r *memCashBoxRepo) Save(_ context.Context, box *treasury.CashBox) error {
	if box.IsDefault {
		for _, sibling := range r.store.boxes {
			if sibling.ID != box.ID && sibling.CompanyID == box.CompanyID && sibling.HolderID == box.HolderID {
				sibling.IsDefault = false
			}
		}
	}
	r.store.boxes[box.ID] = box
	return nil
}

func (r *memCashBoxRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.boxes, id)
	return nil
}

type memLedgerRepo struct{ store *memStore }

func (r *memLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*treasury.Transaction, error) {
	for _, tx := range r.store.ledger {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLedgerRepo) FindByCashBox(_ context.Context, companyID, cashBoxID uuid.UUID, _ shared.Filter) ([]*treasury.Transaction, error) {
	var out []*treasury.Transaction
	for _, tx := range r.store.ledger {
		if tx.CompanyID == companyID && tx.CashBoxID == cashBoxID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) FindBySource(_ context.Context, companyID uuid.UUID, sourceType treasury.SourceType, sourceID string) ([]*treasury.Transaction, error) {
	var out []*treasury.Transaction
	for _, tx := range r.store.ledger {
		if tx.CompanyID == companyID && tx.SourceType == sourceType &&
			tx.SourceID != nil && strings.EqualFold(*tx.SourceID, sourceID) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) FindByDateRange(_ context.Context, companyID, cashBoxID uuid.UUID, from, to time.Time) ([]*treasury.Transaction, error) {
	var out []*treasury.Transaction
	for _, tx := range r.store.ledger {
		if tx.CompanyID == companyID && tx.CashBoxID == cashBoxID &&
			!tx.TransactionDate.Before(from) && !tx.TransactionDate.After(to) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) Save(_ context.Context, tx *treasury.Transaction) error {
	r.store.ledger = append(r.store.ledger, tx)
	return nil
}

func (r *memLedgerRepo) SaveAll(ctx context.Context, txs []*treasury.Transaction) error {
	for _, tx := range txs {
		if err := r.Save(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

type memPlanRepo struct{ store *memStore }

func (r *memPlanRepo) FindByID(_ context.Context, id uuid.UUID) (*installment.Plan, error) {
	if plan, ok := r.store.plans[id]; ok {
		return plan, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memPlanRepo) FindByIDForCompany(_ context.Context, companyID, id uuid.UUID) (*installment.Plan, error) {
	if plan, ok := r.store.plans[id]; ok && plan.CompanyID == companyID {
		return plan, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memPlanRepo) FindByInvoice(_ context.Context, companyID, invoiceID uuid.UUID) (*installment.Plan, error) {
	for _, plan := range r.store.plans {
		if plan.CompanyID == companyID && plan.InvoiceID == invoiceID {
			return plan, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPlanRepo) FindActiveByCustomer(_ context.Context, companyID, customerID uuid.UUID) ([]*installment.Plan, error) {
	var out []*installment.Plan
	for _, plan := range r.store.plans {
		if plan.CompanyID == companyID && plan.CustomerID == customerID && plan.IsOpen() {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (r *memPlanRepo) FindWithOverdue(_ context.Context, companyID uuid.UUID, asOf time.Time) ([]*installment.Plan, error) {
	var out []*installment.Plan
	for _, plan := range r.store.plans {
		if plan.CompanyID != companyID || !plan.IsOpen() {
			continue
		}
		for i := range plan.Installments {
			if plan.Installments[i].IsOverdue(asOf) {
				out = append(out, plan)
				break
			}
		}
	}
	return out, nil
}

func (r *memPlanRepo) Save(_ context.Context, plan *installment.Plan) error {
	r.store.plans[plan.ID] = plan
	return nil
}

func (r *memPlanRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.plans, id)
	return nil
}

// memPublisher records published events for assertions.
type memPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *memPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *memPublisher) eventsByType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
