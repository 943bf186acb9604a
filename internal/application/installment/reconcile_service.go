package installment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/backoffice/settlement/internal/application/settlement"
	"github.com/backoffice/settlement/internal/domain/installment"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

// validate checks the boundary commands before any domain code runs.
var validate = validator.New()

// PayInstallmentCommand applies a payment to one scheduled
// installment. RequestID deduplicates client retries of the same
// payment.
type PayInstallmentCommand struct {
	RequestID string          `json:"request_id" validate:"required,max=128"`
	CompanyID uuid.UUID       `json:"company_id" validate:"required"`
	ActorID   uuid.UUID       `json:"actor_id" validate:"required"`
	PlanID    uuid.UUID       `json:"plan_id" validate:"required"`
	Sequence  int             `json:"sequence" validate:"required,min=1"`
	Amount    decimal.Decimal `json:"amount"`
	CashBoxID *uuid.UUID      `json:"cash_box_id,omitempty"`
}

// PayInstallmentResult is the outcome of an installment payment.
type PayInstallmentResult struct {
	PlanID          uuid.UUID       `json:"plan_id"`
	Sequence        int             `json:"sequence"`
	PlanStatus      string          `json:"plan_status"`
	PlanRemaining   decimal.Decimal `json:"plan_remaining"`
	InstallmentPaid bool            `json:"installment_paid"`
	Reconciled      bool            `json:"reconciled"`
}

// ReconcileService settles installment payments and keeps the derived
// plan fields consistent. A failed reconciliation never fails the
// payment that triggered it; the plan is queued and retried until the
// derivation goes through.
type ReconcileService struct {
	scope       settlement.TransactionScope
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	logger      *zap.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]uuid.UUID // plan id -> company id
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	scope settlement.TransactionScope,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		scope:       scope,
		idempotency: idempotency,
		idemCfg:     idemCfg,
		logger:      logger,
		pending:     make(map[uuid.UUID]uuid.UUID),
	}
}

// CreatePlanCommand schedules an invoice's remaining amount over a
// number of equal installments.
type CreatePlanCommand struct {
	CompanyID      uuid.UUID `json:"company_id" validate:"required"`
	ActorID        uuid.UUID `json:"actor_id" validate:"required"`
	InvoiceID      uuid.UUID `json:"invoice_id" validate:"required"`
	Count          int       `json:"count" validate:"required,min=1,max=120"`
	FirstDueDate   time.Time `json:"first_due_date"`
	IntervalMonths int       `json:"interval_months" validate:"omitempty,min=1"`
}

// CreatePlan schedules the invoice's remaining amount over equal
// monthly installments, with any division remainder folded into the
// last one so the schedule sums exactly.
func (s *ReconcileService) CreatePlan(ctx context.Context, cmd CreatePlanCommand) (*installment.Plan, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid plan command: %v", err)
	}
	interval := cmd.IntervalMonths
	if interval == 0 {
		interval = 1
	}

	var plan *installment.Plan
	err := s.scope.Execute(ctx, func(repos settlement.TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForCompany(ctx, cmd.CompanyID, cmd.InvoiceID)
		if err != nil {
			return err
		}
		if !inv.RemainingAmount.IsPositive() {
			return shared.ErrInvalidState.WithMessagef(
				"invoice %s has nothing left to finance", inv.InvoiceNumber)
		}
		if _, err := repos.PlanRepo().FindByInvoice(ctx, cmd.CompanyID, inv.ID); err == nil {
			return shared.ErrAlreadyExists.WithMessagef("invoice %s already has a plan", inv.InvoiceNumber)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		plan, err = newScheduledPlan(cmd, inv.CounterpartyID, inv.RemainingAmount, interval)
		if err != nil {
			return err
		}
		return repos.PlanRepo().Save(ctx, plan)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func newScheduledPlan(cmd CreatePlanCommand, customerID uuid.UUID, total decimal.Decimal, interval int) (*installment.Plan, error) {
	plan, derr := installment.NewPlan(cmd.CompanyID, cmd.InvoiceID, customerID, total)
	if derr != nil {
		return nil, derr
	}

	per := total.Div(decimal.NewFromInt(int64(cmd.Count))).RoundDown(2)
	installments := make([]installment.Installment, 0, cmd.Count)
	scheduled := decimal.Zero
	due := cmd.FirstDueDate
	if due.IsZero() {
		due = time.Now().AddDate(0, interval, 0)
	}
	for i := 1; i <= cmd.Count; i++ {
		amount := per
		if i == cmd.Count {
			amount = total.Sub(scheduled)
		}
		ins, derr := installment.NewInstallment(plan.ID, i, amount, due)
		if derr != nil {
			return nil, derr
		}
		installments = append(installments, *ins)
		scheduled = scheduled.Add(amount)
		due = due.AddDate(0, interval, 0)
	}
	if derr := plan.Schedule(installments); derr != nil {
		return nil, derr
	}
	return plan, nil
}

// PayInstallment applies a payment to the given installment, books the
// treasury leg, forwards the amount to the financed invoice and
// reconciles the plan.
func (s *ReconcileService) PayInstallment(ctx context.Context, cmd PayInstallmentCommand) (*PayInstallmentResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid payment command: %v", err)
	}
	if !cmd.Amount.IsPositive() {
		return nil, shared.ErrValidation.WithMessagef("payment amount must be positive: %s", cmd.Amount)
	}

	idemKey := "installment:pay:" + cmd.RequestID
	firstTime, err := s.idempotency.MarkProcessed(ctx, idemKey, s.idemCfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if !firstTime {
		return nil, shared.ErrAlreadyExists.WithMessagef("payment request %s was already processed", cmd.RequestID)
	}

	var result *PayInstallmentResult
	err = s.scope.Execute(ctx, func(repos settlement.TransactionalRepositories) error {
		plan, err := repos.PlanRepo().FindByIDForCompany(ctx, cmd.CompanyID, cmd.PlanID)
		if err != nil {
			return err
		}

		ins := findInstallment(plan, cmd.Sequence)
		if ins == nil {
			return shared.ErrNotFound.WithMessagef("plan has no installment %d", cmd.Sequence)
		}
		if derr := ins.Pay(cmd.Amount); derr != nil {
			return derr
		}

		if err := s.bookPayment(ctx, repos, plan, cmd); err != nil {
			return err
		}

		inv, err := repos.InvoiceRepo().FindByIDForCompany(ctx, cmd.CompanyID, plan.InvoiceID)
		if err != nil {
			return err
		}
		if derr := inv.RegisterPayment(cmd.Amount); derr != nil {
			return derr
		}
		inv.ClearAggregated()
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		reconciled := true
		if _, derr := installment.Reconcile(plan); derr != nil {
			// The payment itself is sound; the derivation is retried
			// out of band.
			reconciled = false
			s.logger.Warn("plan reconciliation failed, queued for retry",
				zap.String("plan_id", plan.ID.String()),
				zap.Error(derr))
			s.enqueueRetry(cmd.CompanyID, plan.ID)
		}

		if err := repos.PlanRepo().Save(ctx, plan); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}

		result = &PayInstallmentResult{
			PlanID:          plan.ID,
			Sequence:        cmd.Sequence,
			PlanStatus:      string(plan.Status),
			PlanRemaining:   plan.RemainingAmount,
			InstallmentPaid: ins.Status == installment.InstallmentPaid,
			Reconciled:      reconciled,
		}
		return nil
	})
	if err != nil {
		// The payment rolled back, so the request may be retried under
		// the same id.
		if relErr := s.idempotency.Release(ctx, idemKey); relErr != nil {
			s.logger.Warn("failed to release idempotency key",
				zap.String("request_id", cmd.RequestID),
				zap.Error(relErr))
		}
		return nil, err
	}
	return result, nil
}

// ReconcilePlan rederives one plan's remaining amount and status.
func (s *ReconcileService) ReconcilePlan(ctx context.Context, companyID, planID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos settlement.TransactionalRepositories) error {
		plan, err := repos.PlanRepo().FindByIDForCompany(ctx, companyID, planID)
		if err != nil {
			return err
		}
		result, derr := installment.Reconcile(plan)
		if derr != nil {
			return derr
		}
		if !result.Changed {
			return nil
		}
		return repos.PlanRepo().Save(ctx, plan)
	})
}

// RetryPending re-runs reconciliation for every queued plan. Plans
// that fail again stay queued.
func (s *ReconcileService) RetryPending(ctx context.Context) {
	s.mu.Lock()
	batch := make(map[uuid.UUID]uuid.UUID, len(s.pending))
	for planID, companyID := range s.pending {
		batch[planID] = companyID
	}
	s.pending = make(map[uuid.UUID]uuid.UUID)
	s.mu.Unlock()

	for planID, companyID := range batch {
		if err := s.ReconcilePlan(ctx, companyID, planID); err != nil {
			s.logger.Warn("plan reconciliation retry failed",
				zap.String("plan_id", planID.String()),
				zap.Error(err))
			s.enqueueRetry(companyID, planID)
		}
	}
}

// PendingCount reports how many plans await a reconciliation retry.
func (s *ReconcileService) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *ReconcileService) enqueueRetry(companyID, planID uuid.UUID) {
	s.mu.Lock()
	s.pending[planID] = companyID
	s.mu.Unlock()
}

// bookPayment books the installment amount into a cash box. Incoming
// installments are always deposits; the box comes from the command or
// the actor's default.
func (s *ReconcileService) bookPayment(
	ctx context.Context,
	repos settlement.TransactionalRepositories,
	plan *installment.Plan,
	cmd PayInstallmentCommand,
) error {
	var (
		box *treasury.CashBox
		err error
	)
	if cmd.CashBoxID != nil {
		box, err = repos.CashBoxRepo().FindForUpdate(ctx, cmd.CompanyID, *cmd.CashBoxID)
	} else {
		box, err = repos.CashBoxRepo().FindDefaultForHolder(ctx, cmd.CompanyID, cmd.ActorID)
	}
	if err != nil {
		return err
	}

	tx, derr := treasury.CreateDepositTransaction(
		cmd.CompanyID, box.ID, cmd.ActorID, cmd.Amount, box.Balance, treasury.SourceInstallment)
	if derr != nil {
		return derr
	}
	tx.WithSourceID(plan.ID.String()).WithReference(fmt.Sprintf("%s/%d", plan.ID, cmd.Sequence))

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

func findInstallment(plan *installment.Plan, sequence int) *installment.Installment {
	for i := range plan.Installments {
		if plan.Installments[i].Sequence == sequence {
			return &plan.Installments[i]
		}
	}
	return nil
}
