package installment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// PlanStatus is the lifecycle state of an installment plan.
type PlanStatus string

const (
	PlanPending       PlanStatus = "PENDING"
	PlanPartiallyPaid PlanStatus = "PARTIALLY_PAID"
	PlanPaid          PlanStatus = "PAID"
	PlanCancelled     PlanStatus = "CANCELLED"
)

// OpenPlanStatuses are the statuses of plans still collecting
// payments.
var OpenPlanStatuses = []PlanStatus{PlanPending, PlanPartiallyPaid}

// Plan groups the scheduled installments of one financed invoice. Its
// RemainingAmount is derived from the installments and kept consistent
// by the reconciler, never written directly by callers.
type Plan struct {
	shared.CompanyAggregateRoot
	InvoiceID       uuid.UUID
	CustomerID      uuid.UUID
	TotalAmount     decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          PlanStatus
	Installments    []Installment
}

// NewPlan creates an active plan over the given total.
func NewPlan(companyID, invoiceID, customerID uuid.UUID, totalAmount decimal.Decimal) (*Plan, *shared.DomainError) {
	if companyID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("company id cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("invoice id cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("customer id cannot be empty")
	}
	if !totalAmount.IsPositive() {
		return nil, shared.ErrValidation.WithMessagef("plan total must be positive: %s", totalAmount)
	}

	return &Plan{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		InvoiceID:            invoiceID,
		CustomerID:           customerID,
		TotalAmount:          totalAmount,
		RemainingAmount:      totalAmount,
		Status:               PlanPending,
	}, nil
}

// IsOpen reports whether the plan still collects payments.
func (p *Plan) IsOpen() bool {
	return p.Status == PlanPending || p.Status == PlanPartiallyPaid
}

// Schedule replaces the plan's installments. The scheduled amounts
// must sum to the plan total.
func (p *Plan) Schedule(installments []Installment) *shared.DomainError {
	if p.Status != PlanPending {
		return shared.ErrInvalidState.WithMessagef("plan is %s, schedule is frozen", p.Status)
	}
	if len(installments) == 0 {
		return shared.ErrValidation.WithMessagef("plan needs at least one installment")
	}

	sum := decimal.Zero
	for i := range installments {
		sum = sum.Add(installments[i].Amount)
	}
	if !sum.Equal(p.TotalAmount) {
		return shared.ErrValidation.WithMessagef(
			"scheduled amounts sum to %s, plan total is %s", sum, p.TotalAmount)
	}

	p.Installments = installments
	p.Touch()
	return nil
}

// Cancel voids the plan and every open installment on it.
func (p *Plan) Cancel() *shared.DomainError {
	if p.Status == PlanPaid {
		return shared.ErrInvalidState.WithMessagef("settled plan cannot be cancelled")
	}
	p.Status = PlanCancelled
	for i := range p.Installments {
		if p.Installments[i].Status != InstallmentPaid {
			p.Installments[i].Cancel()
		}
	}
	p.Touch()
	return nil
}
