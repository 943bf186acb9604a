package treasury

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backoffice/settlement/internal/application/settlement"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

var validate = validator.New()

// LedgerService handles manual treasury movements: deposits,
// withdrawals and box-to-box transfers. Every balance change writes an
// immutable ledger transaction in the same scope.
type LedgerService struct {
	scope  settlement.TransactionScope
	logger *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(scope settlement.TransactionScope, logger *zap.Logger) *LedgerService {
	return &LedgerService{scope: scope, logger: logger}
}

// CreateCashBox opens a box. Making it the default demotes any sibling
// default of the same holder.
func (s *LedgerService) CreateCashBox(ctx context.Context, cmd CreateCashBoxCommand) (*treasury.CashBox, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid cash box command: %v", err)
	}

	var box *treasury.CashBox
	err := s.scope.Execute(ctx, func(repos settlement.TransactionalRepositories) error {
		var derr *shared.DomainError
		box, derr = treasury.NewCashBox(cmd.CompanyID, cmd.HolderID, cmd.Name, cmd.IsDefault)
		if derr != nil {
			return derr
		}
		box.SetCreatedBy(cmd.ActorID)
		return repos.CashBoxRepo().Save(ctx, box)
	})
	if err != nil {
		return nil, err
	}
	return box, nil
}

// Deposit books money into a box. The box may be named explicitly or
// resolved as the holder's default.
func (s *LedgerService) Deposit(ctx context.Context, cmd MoveFundsCommand) (*MovementResult, error) {
	return s.move(ctx, cmd, treasury.TransactionTypeDeposit)
}

// Withdraw books money out of a box. Overdrafts are allowed; the
// resulting negative balance is recorded truthfully.
func (s *LedgerService) Withdraw(ctx context.Context, cmd MoveFundsCommand) (*MovementResult, error) {
	return s.move(ctx, cmd, treasury.TransactionTypeWithdrawal)
}

func (s *LedgerService) move(ctx context.Context, cmd MoveFundsCommand, txType treasury.TransactionType) (*MovementResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid movement command: %v", err)
	}
	if !cmd.Amount.IsPositive() {
		return nil, shared.ErrValidation.WithMessagef("amount must be positive: %s", cmd.Amount)
	}

	var result *MovementResult
	err := s.scope.Execute(ctx, func(repos settlement.TransactionalRepositories) error {
		box, err := s.resolveBox(ctx, repos, cmd.CompanyID, cmd.HolderID, cmd.CashBoxID)
		if err != nil {
			return err
		}

		tx, derr := treasury.NewTransaction(
			cmd.CompanyID, box.ID, cmd.ActorID, txType, cmd.Amount, box.Balance, treasury.SourceManual)
		if derr != nil {
			return derr
		}
		if cmd.Reference != "" {
			tx.WithReference(cmd.Reference)
		}
		if cmd.Remark != "" {
			tx.WithRemark(cmd.Remark)
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

		result = &MovementResult{
			TransactionID: tx.ID,
			CashBoxID:     box.ID,
			BalanceBefore: tx.BalanceBefore,
			BalanceAfter:  tx.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ledger movement booked",
		zap.String("type", txType.String()),
		zap.String("cash_box_id", result.CashBoxID.String()),
		zap.String("amount", cmd.Amount.String()))
	return result, nil
}

// Transfer moves funds between two boxes as a linked pair of ledger
// transactions. Unlike a plain withdrawal, the sending box must cover
// the amount.
func (s *LedgerService) Transfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, shared.ErrValidation.WithMessagef("invalid transfer command: %v", err)
	}
	if !cmd.Amount.IsPositive() {
		return nil, shared.ErrValidation.WithMessagef("amount must be positive: %s", cmd.Amount)
	}

	var result *TransferResult
	err := s.scope.Execute(ctx, func(repos settlement.TransactionalRepositories) error {
		from, err := repos.CashBoxRepo().FindForUpdate(ctx, cmd.CompanyID, cmd.FromBoxID)
		if err != nil {
			return err
		}
		to, err := repos.CashBoxRepo().FindForUpdate(ctx, cmd.CompanyID, cmd.ToBoxID)
		if err != nil {
			return err
		}

		if !from.CanCover(cmd.Amount) {
			return shared.ErrInsufficientBalance.WithMessagef(
				"box %s holds %s, cannot transfer %s", from.Name, from.Balance, cmd.Amount).
				WithDetails(map[string]any{
					"cash_box_id": from.ID.String(),
					"balance":     from.Balance.String(),
					"amount":      cmd.Amount.String(),
				})
		}

		out, in, derr := treasury.CreateTransferTransactions(
			cmd.CompanyID, from.ID, to.ID, cmd.ActorID, cmd.Amount, from.Balance, to.Balance)
		if derr != nil {
			return derr
		}
		if cmd.Remark != "" {
			out.WithRemark(cmd.Remark)
			in.WithRemark(cmd.Remark)
		}

		if derr := from.Apply(out.SignedAmount()); derr != nil {
			return derr
		}
		if derr := to.Apply(in.SignedAmount()); derr != nil {
			return derr
		}

		if err := repos.CashBoxRepo().Save(ctx, from); err != nil {
			return fmt.Errorf("save sending box: %w", err)
		}
		if err := repos.CashBoxRepo().Save(ctx, to); err != nil {
			return fmt.Errorf("save receiving box: %w", err)
		}
		if err := repos.LedgerRepo().SaveAll(ctx, []*treasury.Transaction{out, in}); err != nil {
			return fmt.Errorf("save transfer legs: %w", err)
		}

		result = &TransferResult{
			Outgoing: MovementResult{TransactionID: out.ID, CashBoxID: from.ID, BalanceBefore: out.BalanceBefore, BalanceAfter: out.BalanceAfter},
			Incoming: MovementResult{TransactionID: in.ID, CashBoxID: to.ID, BalanceBefore: in.BalanceBefore, BalanceAfter: in.BalanceAfter},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer booked",
		zap.String("from", cmd.FromBoxID.String()),
		zap.String("to", cmd.ToBoxID.String()),
		zap.String("amount", cmd.Amount.String()))
	return result, nil
}

func (s *LedgerService) resolveBox(
	ctx context.Context,
	repos settlement.TransactionalRepositories,
	companyID, holderID uuid.UUID,
	boxID *uuid.UUID,
) (*treasury.CashBox, error) {
	if boxID != nil {
		return repos.CashBoxRepo().FindForUpdate(ctx, companyID, *boxID)
	}
	return repos.CashBoxRepo().FindDefaultForHolder(ctx, companyID, holderID)
}
