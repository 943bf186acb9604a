package treasury

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCashBoxCommand opens a new box for a holder.
type CreateCashBoxCommand struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
	HolderID  uuid.UUID `json:"holder_id" validate:"required"`
	Name      string    `json:"name" validate:"required,max=128"`
	IsDefault bool      `json:"is_default"`
}

// MoveFundsCommand deposits into or withdraws from one box. When
// CashBoxID is nil the holder's default box is resolved.
type MoveFundsCommand struct {
	CompanyID uuid.UUID       `json:"company_id" validate:"required"`
	ActorID   uuid.UUID       `json:"actor_id" validate:"required"`
	HolderID  uuid.UUID       `json:"holder_id" validate:"required"`
	CashBoxID *uuid.UUID      `json:"cash_box_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"max=64"`
	Remark    string          `json:"remark" validate:"max=255"`
}

// TransferCommand moves funds between two boxes of one company.
type TransferCommand struct {
	CompanyID uuid.UUID       `json:"company_id" validate:"required"`
	ActorID   uuid.UUID       `json:"actor_id" validate:"required"`
	FromBoxID uuid.UUID       `json:"from_box_id" validate:"required"`
	ToBoxID   uuid.UUID       `json:"to_box_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Remark    string          `json:"remark" validate:"max=255"`
}

// MovementResult reports one booked ledger movement.
type MovementResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	CashBoxID     uuid.UUID       `json:"cash_box_id"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// TransferResult reports both legs of a transfer.
type TransferResult struct {
	Outgoing MovementResult `json:"outgoing"`
	Incoming MovementResult `json:"incoming"`
}
