package treasury

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// CashBox is a balance holder account. Its Balance field is
// denormalized from the transaction history; every change goes through
// Apply together with an immutable Transaction in the same unit of
// work.
type CashBox struct {
	shared.CompanyAggregateRoot
	Name     string
	// HolderID is the employee or partner the box belongs to.
	HolderID uuid.UUID
	Balance  decimal.Decimal
	// IsDefault marks the box picked when an operation names only the
	// holder. At most one default per (holder, company).
	IsDefault bool
	Active    bool
}

// NewCashBox creates an empty active cash box.
func NewCashBox(companyID, holderID uuid.UUID, name string, isDefault bool) (*CashBox, *shared.DomainError) {
	if companyID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("company id cannot be empty")
	}
	if holderID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("holder id cannot be empty")
	}
	if name == "" {
		return nil, shared.ErrValidation.WithMessagef("cash box name cannot be empty")
	}

	return &CashBox{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
		HolderID:             holderID,
		Balance:              decimal.Zero,
		IsDefault:            isDefault,
		Active:               true,
	}, nil
}

// Apply moves the balance by a signed delta. Negative balances are
// permitted; withdrawals may overdraw a box and the ledger keeps the
// truthful figure.
func (b *CashBox) Apply(delta decimal.Decimal) *shared.DomainError {
	if !b.Active {
		return shared.ErrInvalidState.WithMessagef("cash box %s is deactivated", b.Name)
	}
	b.Balance = b.Balance.Add(delta)
	b.Touch()
	return nil
}

// CanCover reports whether the box holds at least the given amount.
// Transfers require this; plain withdrawals do not.
func (b *CashBox) CanCover(amount decimal.Decimal) bool {
	return b.Balance.GreaterThanOrEqual(amount)
}

// MakeDefault marks this box as the holder default. The repository
// clears the flag on any sibling in the same save.
func (b *CashBox) MakeDefault() {
	b.IsDefault = true
	b.Touch()
}

// Deactivate freezes the box. Its balance is kept for the record.
func (b *CashBox) Deactivate() {
	b.Active = false
	b.Touch()
}
