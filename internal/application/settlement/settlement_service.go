package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/stock"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

// Service orchestrates the settlement of a document: totals, stock
// allocation, the treasury leg and the installment side effects all
// happen in one transaction scope. Events publish after commit.
type Service struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a settlement service.
func NewService(scope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		scope:     scope,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateInvoice settles a new document end to end: it calculates the
// totals, allocates stock for every tracked line, books the paid
// amount against a cash box and confirms the invoice.
func (s *Service) CreateInvoice(ctx context.Context, cmd CreateInvoiceCommand) (*InvoiceResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid create command: %v", err)
	}
	kind := invoicing.InvoiceKind(cmd.Kind)

	var (
		result *InvoiceResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.InvoiceRepo().FindByNumber(ctx, cmd.CompanyID, cmd.InvoiceNumber); err == nil {
			return shared.ErrAlreadyExists.WithMessagef("invoice number %s already used", cmd.InvoiceNumber)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		issueDate := cmd.IssueDate
		if issueDate.IsZero() {
			issueDate = s.now()
		}
		inv, derr := invoicing.NewInvoice(cmd.CompanyID, cmd.CounterpartyID, cmd.InvoiceNumber, kind, issueDate)
		if derr != nil {
			return derr
		}
		inv.SetCreatedBy(cmd.ActorID)
		inv.Notes = cmd.Notes
		inv.CashBoxID = cmd.CashBoxID
		inv.WarehouseID = cmd.WarehouseID

		docInput := invoicing.DocumentInput{
			TaxInclusive:  cmd.TaxInclusive,
			TaxRate:       cmd.TaxRate,
			TotalDiscount: cmd.TotalDiscount,
			RoundStep:     cmd.RoundStep,
		}
		lineInputs := toLineInputs(cmd.Lines)
		totals, derr := invoicing.CalculateTotals(lineInputs, docInput)
		if derr != nil {
			return derr
		}

		items, err := s.buildItems(inv, cmd.Lines, lineInputs, totals)
		if err != nil {
			return err
		}
		if err := s.allocateStock(ctx, repos, inv, cmd.Lines, items, stockMode(cmd.StockCheckMode)); err != nil {
			return err
		}

		if derr := inv.ApplyTotals(items, totals, docInput); derr != nil {
			return derr
		}
		if derr := inv.Confirm(); derr != nil {
			return derr
		}

		route := PaymentRoute{BoxAmount: decimal.Zero, CounterpartyCredit: decimal.Zero}
		if cmd.PaidAmount.IsPositive() {
			var rerr *shared.DomainError
			route, rerr = RoutePayment(kind, inv.NetAmount, cmd.PaidAmount)
			if rerr != nil {
				return rerr
			}
			if err := s.bookPayment(ctx, repos, inv, route.BoxTransactionType, route.BoxAmount, cmd.ActorID, cmd.CashBoxID, ""); err != nil {
				return err
			}
			if derr := inv.RegisterPayment(cmd.PaidAmount); derr != nil {
				return derr
			}
			if err := s.bookCounterpartyExcess(ctx, repos, inv, cmd.ActorID,
				decimal.Zero, excessOver(cmd.PaidAmount, inv.NetAmount)); err != nil {
				return err
			}
		}

		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		events = inv.GetDomainEvents()
		inv.ClearDomainEvents()
		result = s.toResult(inv, route.CounterpartyCredit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return result, nil
}

// RegisterPayment applies a further settled amount to a confirmed
// document. A negative amount refunds part of the settled sum with an
// offsetting ledger entry.
func (s *Service) RegisterPayment(ctx context.Context, cmd RegisterPaymentCommand) (*InvoiceResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid payment command: %v", err)
	}
	if cmd.Amount.IsZero() {
		return nil, shared.ErrValidation.WithMessagef("payment amount cannot be zero")
	}

	var (
		result *InvoiceResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForCompany(ctx, cmd.CompanyID, cmd.InvoiceID)
		if err != nil {
			return err
		}

		txType, rerr := s.ledgerLegFor(inv.Kind, cmd.Amount)
		if rerr != nil {
			return rerr
		}
		if err := s.bookPayment(ctx, repos, inv, txType, cmd.Amount.Abs(), cmd.ActorID, cmd.CashBoxID, cmd.Reference); err != nil {
			return err
		}
		previousPaid := inv.PaidAmount
		if derr := inv.RegisterPayment(cmd.Amount); derr != nil {
			return derr
		}
		if err := s.bookCounterpartyExcess(ctx, repos, inv, cmd.ActorID,
			excessOver(previousPaid, inv.NetAmount), excessOver(inv.PaidAmount, inv.NetAmount)); err != nil {
			return err
		}
		inv.ClearAggregated()

		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		events = inv.GetDomainEvents()
		inv.ClearDomainEvents()
		credit := decimal.Zero
		if inv.RemainingAmount.IsNegative() {
			route, rerr := RoutePayment(inv.Kind, inv.NetAmount, inv.PaidAmount)
			if rerr != nil {
				return rerr
			}
			credit = route.CounterpartyCredit
		}
		result = s.toResult(inv, credit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return result, nil
}

// UpdateInvoice replaces the lines and payment figures of a live
// document. Previously allocated stock is returned before the new
// lines allocate, and only the paid delta moves through the treasury.
func (s *Service) UpdateInvoice(ctx context.Context, cmd UpdateInvoiceCommand) (*InvoiceResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid update command: %v", err)
	}

	var (
		result *InvoiceResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForCompany(ctx, cmd.CompanyID, cmd.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == invoicing.StatusCancelled || inv.Status == invoicing.StatusRefunded {
			return shared.ErrInvalidState.WithMessagef("invoice %s is %s", inv.InvoiceNumber, inv.Status)
		}

		if err := s.reverseStock(ctx, repos, inv); err != nil {
			return err
		}

		previousPaid := inv.PaidAmount
		previousNet := inv.NetAmount
		docInput := invoicing.DocumentInput{
			TaxInclusive:  cmd.TaxInclusive,
			TaxRate:       cmd.TaxRate,
			TotalDiscount: cmd.TotalDiscount,
			PaidAmount:    cmd.PaidAmount,
			RoundStep:     cmd.RoundStep,
		}
		lineInputs := toLineInputs(cmd.Lines)
		totals, derr := invoicing.CalculateTotals(lineInputs, docInput)
		if derr != nil {
			return derr
		}
		items, err := s.buildItems(inv, cmd.Lines, lineInputs, totals)
		if err != nil {
			return err
		}
		if err := s.allocateStock(ctx, repos, inv, cmd.Lines, items, stockMode(cmd.StockCheckMode)); err != nil {
			return err
		}
		if derr := inv.ApplyTotals(items, totals, docInput); derr != nil {
			return derr
		}

		paidDelta := cmd.PaidAmount.Sub(previousPaid)
		if !paidDelta.IsZero() {
			txType, rerr := s.ledgerLegFor(inv.Kind, paidDelta)
			if rerr != nil {
				return rerr
			}
			if err := s.bookPayment(ctx, repos, inv, txType, paidDelta.Abs(), cmd.ActorID, cmd.CashBoxID, ""); err != nil {
				return err
			}
		}
		if err := s.bookCounterpartyExcess(ctx, repos, inv, cmd.ActorID,
			excessOver(previousPaid, previousNet), excessOver(cmd.PaidAmount, inv.NetAmount)); err != nil {
			return err
		}
		inv.ClearAggregated()

		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		events = inv.GetDomainEvents()
		inv.ClearDomainEvents()
		credit := decimal.Zero
		if inv.RemainingAmount.IsNegative() {
			route, rerr := RoutePayment(inv.Kind, inv.NetAmount, inv.PaidAmount)
			if rerr != nil {
				return rerr
			}
			credit = route.CounterpartyCredit
		}
		result = s.toResult(inv, credit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return result, nil
}

// CancelInvoice voids a document, puts its stock back, optionally
// refunds the settled amount with an offsetting ledger entry and
// cancels any installment plan financed by it.
func (s *Service) CancelInvoice(ctx context.Context, cmd CancelInvoiceCommand) (*InvoiceResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid cancel command: %v", err)
	}

	var (
		result *InvoiceResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForCompany(ctx, cmd.CompanyID, cmd.InvoiceID)
		if err != nil {
			return err
		}

		if err := s.reverseStock(ctx, repos, inv); err != nil {
			return err
		}

		if cmd.RefundPaid && inv.PaidAmount.IsPositive() {
			txType, rerr := ReverseRoute(inv.Kind)
			if rerr != nil {
				return rerr
			}
			if err := s.bookPayment(ctx, repos, inv, txType, inv.PaidAmount, cmd.ActorID, cmd.CashBoxID, ""); err != nil {
				return err
			}
			// The refund hands the full paid amount back, so any credit
			// held in the counterparty's box comes back too.
			if err := s.bookCounterpartyExcess(ctx, repos, inv, cmd.ActorID,
				excessOver(inv.PaidAmount, inv.NetAmount), decimal.Zero); err != nil {
				return err
			}
		}

		plan, err := repos.PlanRepo().FindByInvoice(ctx, cmd.CompanyID, inv.ID)
		switch {
		case err == nil:
			if derr := plan.Cancel(); derr != nil {
				return derr
			}
			if err := repos.PlanRepo().Save(ctx, plan); err != nil {
				return fmt.Errorf("save plan: %w", err)
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		if derr := inv.Cancel(cmd.Reason); derr != nil {
			return derr
		}
		inv.ClearAggregated()

		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		events = inv.GetDomainEvents()
		inv.ClearDomainEvents()
		result = s.toResult(inv, decimal.Zero)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return result, nil
}

// ledgerLegFor picks the ledger transaction type for a signed payment
// delta on the given document kind.
func (s *Service) ledgerLegFor(kind invoicing.InvoiceKind, delta decimal.Decimal) (treasury.TransactionType, *shared.DomainError) {
	if delta.IsPositive() {
		route, err := RoutePayment(kind, decimal.Zero, delta)
		if err != nil {
			return "", err
		}
		return route.BoxTransactionType, nil
	}
	return ReverseRoute(kind)
}

// bookPayment resolves the cash box, moves its balance and appends the
// immutable ledger transaction, all inside the current scope.
func (s *Service) bookPayment(
	ctx context.Context,
	repos TransactionalRepositories,
	inv *invoicing.Invoice,
	txType treasury.TransactionType,
	amount decimal.Decimal,
	actorID uuid.UUID,
	explicitBoxID *uuid.UUID,
	reference string,
) error {
	box, err := s.resolveCashBox(ctx, repos, inv.CompanyID, actorID, explicitBoxID, inv.CashBoxID)
	if err != nil {
		return err
	}

	tx, derr := treasury.NewTransaction(inv.CompanyID, box.ID, actorID, txType, amount, box.Balance, treasury.SourceInvoice)
	if derr != nil {
		return derr
	}
	tx.WithSourceID(inv.ID.String())
	if reference != "" {
		tx.WithReference(reference)
	}

	if derr := box.Apply(tx.SignedAmount()); derr != nil {
		return derr
	}
	if err := repos.CashBoxRepo().Save(ctx, box); err != nil {
		return fmt.Errorf("save cash box: %w", err)
	}
	if err := repos.LedgerRepo().Save(ctx, tx); err != nil {
		return fmt.Errorf("save ledger transaction: %w", err)
	}
	inv.CashBoxID = &box.ID
	return nil
}

// excessOver returns how far paid exceeds net, floored at zero.
func excessOver(paid, net decimal.Decimal) decimal.Decimal {
	excess := paid.Sub(net)
	if excess.IsNegative() {
		return decimal.Zero
	}
	return excess
}

// bookCounterpartyExcess moves a change in overpaid excess through the
// counterparty's default cash box, so the credit is held as money the
// counterparty can draw on instead of being capped away.
func (s *Service) bookCounterpartyExcess(
	ctx context.Context,
	repos TransactionalRepositories,
	inv *invoicing.Invoice,
	actorID uuid.UUID,
	priorExcess, currentExcess decimal.Decimal,
) error {
	delta := currentExcess.Sub(priorExcess)
	if delta.IsZero() {
		return nil
	}

	txType, rerr := CounterpartyLeg(inv.Kind, delta)
	if rerr != nil {
		return rerr
	}
	box, err := repos.CashBoxRepo().FindDefaultForHolder(ctx, inv.CompanyID, inv.CounterpartyID)
	if err != nil {
		return err
	}

	tx, derr := treasury.NewTransaction(inv.CompanyID, box.ID, actorID, txType, delta.Abs(), box.Balance, treasury.SourceInvoice)
	if derr != nil {
		return derr
	}
	tx.WithSourceID(inv.ID.String())

	if derr := box.Apply(tx.SignedAmount()); derr != nil {
		return derr
	}
	if err := repos.CashBoxRepo().Save(ctx, box); err != nil {
		return fmt.Errorf("save cash box: %w", err)
	}
	if err := repos.LedgerRepo().Save(ctx, tx); err != nil {
		return fmt.Errorf("save ledger transaction: %w", err)
	}
	return nil
}

// resolveCashBox picks the explicit box when one is named, then the
// box already attached to the invoice, then the actor's default.
func (s *Service) resolveCashBox(
	ctx context.Context,
	repos TransactionalRepositories,
	companyID, actorID uuid.UUID,
	explicitBoxID, invoiceBoxID *uuid.UUID,
) (*treasury.CashBox, error) {
	boxID := explicitBoxID
	if boxID == nil {
		boxID = invoiceBoxID
	}
	if boxID != nil {
		return repos.CashBoxRepo().FindForUpdate(ctx, companyID, *boxID)
	}
	return repos.CashBoxRepo().FindDefaultForHolder(ctx, companyID, actorID)
}

// buildItems turns validated line commands into invoice items carrying
// the calculated amounts.
func (s *Service) buildItems(
	inv *invoicing.Invoice,
	lines []LineCommand,
	inputs []invoicing.LineInput,
	totals invoicing.DocumentTotals,
) ([]invoicing.InvoiceItem, error) {
	items := make([]invoicing.InvoiceItem, 0, len(lines))
	for i, line := range lines {
		item, derr := invoicing.NewInvoiceItem(inv.ID, line.Name, inputs[i], totals.Lines[i])
		if derr != nil {
			return nil, derr.WithDetails(map[string]any{"line_index": i})
		}
		if line.TracksStock {
			if line.ProductID == nil {
				return nil, shared.ErrValidation.
					WithMessagef("line %d (%s) tracks stock but names no product", i, line.Name).
					WithDetails(map[string]any{"line_index": i})
			}
			item.AssignStock(*line.ProductID, line.VariantID, inv.WarehouseID)
		}
		items = append(items, *item)
	}
	return items, nil
}

// allocateStock checks availability and moves lot quantities for every
// tracked line. Sales deduct oldest first and take their cost from the
// consumed lots; purchases create a fresh lot at the line price.
func (s *Service) allocateStock(
	ctx context.Context,
	repos TransactionalRepositories,
	inv *invoicing.Invoice,
	lines []LineCommand,
	items []invoicing.InvoiceItem,
	mode stock.CheckMode,
) error {
	now := s.now()
	cache := newLotCache(ctx, repos.LotRepo(), inv.CompanyID)

	if inv.Kind == invoicing.KindSale {
		demands := make([]stock.DemandLine, 0, len(lines))
		for i, line := range lines {
			demand := stock.DemandLine{
				Index:       i,
				Name:        line.Name,
				TracksStock: line.TracksStock,
				Quantity:    line.Quantity,
			}
			if line.TracksStock {
				if inv.WarehouseID == nil {
					return shared.ErrValidation.WithMessagef("stock-tracked lines require a warehouse")
				}
				lots, err := cache.get(*line.ProductID, line.VariantID, *inv.WarehouseID)
				if err != nil {
					return err
				}
				demand.Lots = lots
			}
			demands = append(demands, demand)
		}
		if derr := stock.CheckAvailability(demands, mode, now); derr != nil {
			return derr
		}

		for i := range demands {
			if !demands[i].TracksStock {
				continue
			}
			qty := demands[i].Quantity
			if mode == stock.ModeNone {
				// Unchecked settlements take whatever is there and
				// leave the remainder unallocated.
				if available := stock.AvailableQuantity(demands[i].Lots, now); available.LessThan(qty) {
					qty = available
				}
			}
			allocations, derr := stock.DeductOldestFirst(demands[i].Lots, qty, now)
			if derr != nil {
				return derr.WithDetails(map[string]any{"line_index": i})
			}
			items[i].SetCost(stock.WeightedUnitCost(allocations))
			inv.AddDomainEvent(stock.NewStockDeductedEvent(
				inv.CompanyID, *lines[i].ProductID, *inv.WarehouseID, lines[i].VariantID,
				qty, allocations))
		}
		return cache.flush(ctx, repos.LotRepo())
	}

	// Purchases take stock in: every tracked line becomes a new lot
	// priced at the discounted line cost.
	for i, line := range lines {
		if !line.TracksStock {
			continue
		}
		if inv.WarehouseID == nil {
			return shared.ErrValidation.WithMessagef("stock-tracked lines require a warehouse")
		}
		unitCost := decimal.Zero
		if line.Quantity.IsPositive() {
			unitCost = items[i].Subtotal.Div(line.Quantity).Round(4)
		}
		lot, derr := stock.NewLot(inv.CompanyID, *line.ProductID, *inv.WarehouseID, line.VariantID,
			fmt.Sprintf("%s-%d", inv.InvoiceNumber, i+1), line.Quantity, unitCost)
		if derr != nil {
			return derr.WithDetails(map[string]any{"line_index": i})
		}
		if err := repos.LotRepo().Save(ctx, lot); err != nil {
			return fmt.Errorf("save lot: %w", err)
		}
		items[i].SetCost(unitCost)
		inv.AddDomainEvent(stock.NewStockReturnedEvent(
			inv.CompanyID, *line.ProductID, *inv.WarehouseID, line.VariantID, line.Quantity, lot.ID))
	}
	return nil
}

// reverseStock undoes the stock effect of the invoice's current items:
// sold quantities return to the newest lots, purchased quantities are
// decremented newest first and fail hard when already consumed.
func (s *Service) reverseStock(ctx context.Context, repos TransactionalRepositories, inv *invoicing.Invoice) error {
	cache := newLotCache(ctx, repos.LotRepo(), inv.CompanyID)

	for i := range inv.Items {
		item := &inv.Items[i]
		if !item.TracksStock || item.ProductID == nil || item.WarehouseID == nil {
			continue
		}
		lots, err := cache.get(*item.ProductID, item.VariantID, *item.WarehouseID)
		if err != nil {
			return err
		}

		if inv.Kind == invoicing.KindSale {
			if len(lots) == 0 {
				// Every lot the sale drew from is gone, so the return
				// opens a fresh lot at the sold cost.
				lot, derr := stock.NewLot(inv.CompanyID, *item.ProductID, *item.WarehouseID, item.VariantID,
					fmt.Sprintf("%s-R%d", inv.InvoiceNumber, i+1), item.Quantity, item.CostPrice)
				if derr != nil {
					return derr.WithDetails(map[string]any{"line_index": i})
				}
				cache.add(*item.ProductID, item.VariantID, *item.WarehouseID, lot)
				inv.AddDomainEvent(stock.NewStockReturnedEvent(
					inv.CompanyID, *item.ProductID, *item.WarehouseID, item.VariantID, item.Quantity, lot.ID))
				continue
			}
			alloc, derr := stock.ReturnNewestFirst(lots, item.Quantity)
			if derr != nil {
				return derr.WithDetails(map[string]any{"line_index": i})
			}
			inv.AddDomainEvent(stock.NewStockReturnedEvent(
				inv.CompanyID, *item.ProductID, *item.WarehouseID, item.VariantID, item.Quantity, alloc.LotID))
			continue
		}

		allocations, derr := stock.DecrementNewestFirst(lots, item.Quantity)
		if derr != nil {
			return derr.WithDetails(map[string]any{"line_index": i})
		}
		inv.AddDomainEvent(stock.NewStockDeductedEvent(
			inv.CompanyID, *item.ProductID, *item.WarehouseID, item.VariantID, item.Quantity, allocations))
	}
	return cache.flush(ctx, repos.LotRepo())
}

func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish settlement event",
				zap.String("event_type", event.EventType()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err))
		}
	}
}

func (s *Service) toResult(inv *invoicing.Invoice, credit decimal.Decimal) *InvoiceResult {
	return &InvoiceResult{
		InvoiceID:          inv.ID,
		InvoiceNumber:      inv.InvoiceNumber,
		Status:             string(inv.Status),
		PaymentStatus:      string(inv.PaymentStatus),
		GrossAmount:        inv.GrossAmount,
		TotalDiscount:      inv.TotalDiscount,
		TotalTax:           inv.TotalTax,
		RoundingAdjustment: inv.RoundingAdjustment,
		NetAmount:          inv.NetAmount,
		PaidAmount:         inv.PaidAmount,
		RemainingAmount:    inv.RemainingAmount,
		OverpaymentCredit:  credit,
	}
}

func toLineInputs(lines []LineCommand) []invoicing.LineInput {
	inputs := make([]invoicing.LineInput, len(lines))
	for i, line := range lines {
		inputs[i] = invoicing.LineInput{
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			TaxRate:   line.TaxRate,
		}
	}
	return inputs
}

func stockMode(mode string) stock.CheckMode {
	if mode == string(stock.ModeNone) {
		return stock.ModeNone
	}
	return stock.ModeStrict
}

// lotCache loads each variant's lots once per scope, with row locks,
// so successive lines mutating the same variant see each other's
// changes before the final flush writes everything back.
type lotCache struct {
	ctx       context.Context
	repo      stock.LotRepository
	companyID uuid.UUID
	lots      map[string][]*stock.Lot
}

func newLotCache(ctx context.Context, repo stock.LotRepository, companyID uuid.UUID) *lotCache {
	return &lotCache{ctx: ctx, repo: repo, companyID: companyID, lots: make(map[string][]*stock.Lot)}
}

func (c *lotCache) get(productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID) ([]*stock.Lot, error) {
	key := productID.String() + "/" + warehouseID.String()
	if variantID != nil {
		key += "/" + variantID.String()
	}
	if lots, ok := c.lots[key]; ok {
		return lots, nil
	}
	lots, err := c.repo.FindForAllocation(c.ctx, c.companyID, productID, variantID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("load lots: %w", err)
	}
	c.lots[key] = lots
	return lots, nil
}

// add records a lot created mid-scope so later lines of the same
// variant see it and the flush persists it.
func (c *lotCache) add(productID uuid.UUID, variantID *uuid.UUID, warehouseID uuid.UUID, lot *stock.Lot) {
	key := productID.String() + "/" + warehouseID.String()
	if variantID != nil {
		key += "/" + variantID.String()
	}
	c.lots[key] = append(c.lots[key], lot)
}

func (c *lotCache) flush(ctx context.Context, repo stock.LotRepository) error {
	for _, lots := range c.lots {
		if err := repo.SaveAll(ctx, lots); err != nil {
			return fmt.Errorf("save lots: %w", err)
		}
	}
	return nil
}
