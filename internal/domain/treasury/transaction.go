package treasury

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// TransactionType represents the type of ledger transaction
type TransactionType string

const (
	// TransactionTypeDeposit represents money entering a box (balance increase)
	TransactionTypeDeposit TransactionType = "DEPOSIT"
	// TransactionTypeWithdrawal represents money leaving a box (balance decrease)
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	// TransactionTypeTransferOut represents the sending leg of a transfer
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	// TransactionTypeTransferIn represents the receiving leg of a transfer
	TransactionTypeTransferIn TransactionType = "TRANSFER_IN"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit,
		TransactionTypeWithdrawal,
		TransactionTypeTransferOut,
		TransactionTypeTransferIn:
		return true
	}
	return false
}

// IsIncrease returns true if this transaction type increases the box balance
func (t TransactionType) IsIncrease() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTransferIn
}

// SourceType represents the originating document of a ledger transaction
type SourceType string

const (
	// SourceManual represents a manually entered movement
	SourceManual SourceType = "MANUAL"
	// SourceInvoice represents a settlement against an invoice
	SourceInvoice SourceType = "INVOICE"
	// SourceInstallment represents a payment against an installment
	SourceInstallment SourceType = "INSTALLMENT"
	// SourceTransfer represents a box-to-box transfer
	SourceTransfer SourceType = "TRANSFER"
	// SourceSystem represents a system-initiated correction
	SourceSystem SourceType = "SYSTEM"
)

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceManual, SourceInvoice, SourceInstallment, SourceTransfer, SourceSystem:
		return true
	}
	return false
}

// Transaction is an immutable record of one cash box balance change.
// Corrections are made with new offsetting transactions, never by
// editing history. Balances may legitimately go negative, so no sign
// check is applied to the snapshots.
type Transaction struct {
	shared.BaseEntity
	CompanyID uuid.UUID
	CashBoxID uuid.UUID
	Type      TransactionType
	// Amount is always positive; the direction comes from Type.
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	SourceType    SourceType
	SourceID      *string
	// OriginalTransactionID links the receiving leg of a transfer back
	// to its sending leg.
	OriginalTransactionID *uuid.UUID
	ActorID               uuid.UUID
	Reference             string
	Remark                string
	TransactionDate       time.Time
}

// NewTransaction creates a new ledger transaction
func NewTransaction(
	companyID, cashBoxID, actorID uuid.UUID,
	txType TransactionType,
	amount, balanceBefore decimal.Decimal,
	sourceType SourceType,
) (*Transaction, *shared.DomainError) {
	if companyID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("company id cannot be empty")
	}
	if cashBoxID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("cash box id cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("actor id cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.ErrValidation.WithMessagef("invalid transaction type: %s", txType)
	}
	if !sourceType.IsValid() {
		return nil, shared.ErrValidation.WithMessagef("invalid source type: %s", sourceType)
	}
	if !amount.IsPositive() {
		return nil, shared.ErrValidation.WithMessagef("amount must be positive: %s", amount)
	}

	after := balanceBefore.Sub(amount)
	if txType.IsIncrease() {
		after = balanceBefore.Add(amount)
	}

	return &Transaction{
		BaseEntity:      shared.NewBaseEntity(),
		CompanyID:       companyID,
		CashBoxID:       cashBoxID,
		Type:            txType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    after,
		SourceType:      sourceType,
		ActorID:         actorID,
		TransactionDate: time.Now(),
	}, nil
}

// WithSourceID sets the source document ID
func (t *Transaction) WithSourceID(sourceID string) *Transaction {
	t.SourceID = &sourceID
	return t
}

// WithReference sets the reference number
func (t *Transaction) WithReference(reference string) *Transaction {
	t.Reference = reference
	return t
}

// WithRemark sets the remark
func (t *Transaction) WithRemark(remark string) *Transaction {
	t.Remark = remark
	return t
}

// WithTransactionDate sets the transaction date
func (t *Transaction) WithTransactionDate(date time.Time) *Transaction {
	t.TransactionDate = date
	return t
}

// SignedAmount returns the amount with its direction applied
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.IsIncrease() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// BalanceChange returns the net balance change of the transaction
func (t *Transaction) BalanceChange() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// CreateDepositTransaction creates a deposit against the given box
func CreateDepositTransaction(
	companyID, cashBoxID, actorID uuid.UUID,
	amount, balanceBefore decimal.Decimal,
	sourceType SourceType,
) (*Transaction, *shared.DomainError) {
	return NewTransaction(companyID, cashBoxID, actorID, TransactionTypeDeposit, amount, balanceBefore, sourceType)
}

// CreateWithdrawalTransaction creates a withdrawal against the given
// box. Overdrafts are allowed, the after snapshot simply goes
// negative.
func CreateWithdrawalTransaction(
	companyID, cashBoxID, actorID uuid.UUID,
	amount, balanceBefore decimal.Decimal,
	sourceType SourceType,
) (*Transaction, *shared.DomainError) {
	return NewTransaction(companyID, cashBoxID, actorID, TransactionTypeWithdrawal, amount, balanceBefore, sourceType)
}

// CreateTransferTransactions creates the paired legs of a box-to-box
// transfer. Each leg carries the other's ID so the pair survives as a
// unit in the history.
func CreateTransferTransactions(
	companyID, fromBoxID, toBoxID, actorID uuid.UUID,
	amount, fromBalanceBefore, toBalanceBefore decimal.Decimal,
) (*Transaction, *Transaction, *shared.DomainError) {
	if fromBoxID == toBoxID {
		return nil, nil, shared.ErrValidation.WithMessagef("cannot transfer a box to itself")
	}

	out, err := NewTransaction(companyID, fromBoxID, actorID, TransactionTypeTransferOut, amount, fromBalanceBefore, SourceTransfer)
	if err != nil {
		return nil, nil, err
	}
	in, err := NewTransaction(companyID, toBoxID, actorID, TransactionTypeTransferIn, amount, toBalanceBefore, SourceTransfer)
	if err != nil {
		return nil, nil, err
	}
	in.OriginalTransactionID = &out.ID
	out.OriginalTransactionID = &in.ID
	return out, in, nil
}
