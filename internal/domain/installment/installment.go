package installment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// InstallmentStatus is the payment state of a single installment.
type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "PENDING"
	InstallmentPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentPaid          InstallmentStatus = "PAID"
	InstallmentCancelled     InstallmentStatus = "CANCELLED"
)

// Installment is one scheduled payment of a plan. The invariant
// amount >= remaining >= 0 holds at all times; payments only ever move
// remaining downward and reversals move it back up, capped at amount.
type Installment struct {
	shared.BaseEntity
	PlanID          uuid.UUID
	Sequence        int
	Amount          decimal.Decimal
	RemainingAmount decimal.Decimal
	DueDate         time.Time
	Status          InstallmentStatus
	PaidAt          *time.Time
}

// NewInstallment creates a pending installment owing its full amount.
func NewInstallment(planID uuid.UUID, sequence int, amount decimal.Decimal, dueDate time.Time) (*Installment, *shared.DomainError) {
	if planID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("plan id cannot be empty")
	}
	if sequence <= 0 {
		return nil, shared.ErrValidation.WithMessagef("sequence must be positive: %d", sequence)
	}
	if !amount.IsPositive() {
		return nil, shared.ErrValidation.WithMessagef("installment amount must be positive: %s", amount)
	}

	return &Installment{
		BaseEntity:      shared.NewBaseEntity(),
		PlanID:          planID,
		Sequence:        sequence,
		Amount:          amount,
		RemainingAmount: amount,
		DueDate:         dueDate,
		Status:          InstallmentPending,
	}, nil
}

// Pay applies a payment to the installment and derives its status.
// Paying more than the remaining amount is rejected; overpayments are
// routed at the document level, never stored on an installment.
func (i *Installment) Pay(amount decimal.Decimal) *shared.DomainError {
	if i.Status == InstallmentCancelled {
		return shared.ErrInvalidState.WithMessagef("cancelled installment %d cannot be paid", i.Sequence)
	}
	if !amount.IsPositive() {
		return shared.ErrValidation.WithMessagef("payment amount must be positive: %s", amount)
	}
	if amount.GreaterThan(i.RemainingAmount) {
		return shared.ErrValidation.WithMessagef(
			"payment %s exceeds remaining %s on installment %d", amount, i.RemainingAmount, i.Sequence)
	}

	i.RemainingAmount = i.RemainingAmount.Sub(amount)
	i.refreshStatus()
	i.Touch()
	return nil
}

// Reverse puts a previously paid amount back onto the installment,
// capped so remaining never exceeds the scheduled amount.
func (i *Installment) Reverse(amount decimal.Decimal) *shared.DomainError {
	if i.Status == InstallmentCancelled {
		return shared.ErrInvalidState.WithMessagef("cancelled installment %d cannot be reversed", i.Sequence)
	}
	if !amount.IsPositive() {
		return shared.ErrValidation.WithMessagef("reversal amount must be positive: %s", amount)
	}
	if i.RemainingAmount.Add(amount).GreaterThan(i.Amount) {
		return shared.ErrValidation.WithMessagef(
			"reversal %s would push remaining past amount %s on installment %d", amount, i.Amount, i.Sequence)
	}

	i.RemainingAmount = i.RemainingAmount.Add(amount)
	i.refreshStatus()
	i.Touch()
	return nil
}

// Cancel voids the installment. Its remaining amount stops counting
// toward the plan.
func (i *Installment) Cancel() {
	i.Status = InstallmentCancelled
	i.Touch()
}

// PaidAmount returns how much of the scheduled amount was settled.
func (i *Installment) PaidAmount() decimal.Decimal {
	return i.Amount.Sub(i.RemainingAmount)
}

// IsOverdue reports whether an unsettled installment is past due.
func (i *Installment) IsOverdue(now time.Time) bool {
	return i.Status != InstallmentPaid && i.Status != InstallmentCancelled && i.DueDate.Before(now)
}

func (i *Installment) refreshStatus() {
	switch {
	case i.RemainingAmount.IsZero():
		i.Status = InstallmentPaid
		now := time.Now()
		i.PaidAt = &now
	case i.RemainingAmount.Equal(i.Amount):
		i.Status = InstallmentPending
		i.PaidAt = nil
	default:
		i.Status = InstallmentPartiallyPaid
		i.PaidAt = nil
	}
}
