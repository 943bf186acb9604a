package installment

import (
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// ReconcileResult reports what a reconciliation pass changed.
type ReconcileResult struct {
	Changed            bool
	PreviousRemaining  decimal.Decimal
	RemainingAmount    decimal.Decimal
	PreviousStatus     PlanStatus
	Status             PlanStatus
	OpenInstallments   int
	SettledInstallment int
}

// Reconcile recomputes the plan's derived fields from its
// installments: remaining is the sum of the remaining amounts of all
// non-cancelled installments, and the status follows from it. The
// derivation is absolute, not incremental, so repeated runs converge
// on the same values no matter how the installments were mutated.
func Reconcile(plan *Plan) (ReconcileResult, *shared.DomainError) {
	if plan == nil {
		return ReconcileResult{}, shared.ErrValidation.WithMessagef("plan cannot be nil")
	}

	result := ReconcileResult{
		PreviousRemaining: plan.RemainingAmount,
		PreviousStatus:    plan.Status,
	}

	remaining := decimal.Zero
	allCancelled := len(plan.Installments) > 0
	touched := false
	for i := range plan.Installments {
		ins := &plan.Installments[i]
		if ins.Status == InstallmentCancelled {
			continue
		}
		allCancelled = false
		if ins.RemainingAmount.IsNegative() || ins.RemainingAmount.GreaterThan(ins.Amount) {
			return ReconcileResult{}, shared.ErrReconciliationFailure.WithMessagef(
				"installment %d remaining %s outside [0, %s]", ins.Sequence, ins.RemainingAmount, ins.Amount)
		}
		remaining = remaining.Add(ins.RemainingAmount)
		switch ins.Status {
		case InstallmentPaid:
			result.SettledInstallment++
			touched = true
		case InstallmentPartiallyPaid:
			result.OpenInstallments++
			touched = true
		default:
			result.OpenInstallments++
		}
	}

	// Paid means every non-cancelled installment is settled; any paid
	// or partially paid installment short of that makes the plan
	// partially paid; an untouched schedule stays pending.
	status := plan.Status
	if plan.Status != PlanCancelled {
		switch {
		case allCancelled:
			status = PlanCancelled
		case result.OpenInstallments == 0 && result.SettledInstallment > 0:
			status = PlanPaid
		case touched:
			status = PlanPartiallyPaid
		default:
			status = PlanPending
		}
	}

	result.RemainingAmount = remaining
	result.Status = status
	result.Changed = !remaining.Equal(plan.RemainingAmount) || status != plan.Status

	plan.RemainingAmount = remaining
	plan.Status = status
	if result.Changed {
		plan.Touch()
	}
	return result, nil
}
