package settlement

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// validate checks the boundary commands before any domain code runs.
var validate = validator.New()

// LineCommand is one requested document line.
type LineCommand struct {
	Name        string          `json:"name" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	// TracksStock marks the line for allocation. It requires a
	// product id; service lines leave both unset.
	TracksStock bool `json:"tracks_stock"`
}

// CreateInvoiceCommand requests a new settled document.
type CreateInvoiceCommand struct {
	CompanyID      uuid.UUID     `json:"company_id" validate:"required"`
	ActorID        uuid.UUID     `json:"actor_id" validate:"required"`
	CounterpartyID uuid.UUID     `json:"counterparty_id" validate:"required"`
	InvoiceNumber  string        `json:"invoice_number" validate:"required,max=64"`
	Kind           string        `json:"kind" validate:"required,oneof=SALE PURCHASE"`
	IssueDate      time.Time     `json:"issue_date"`
	Lines          []LineCommand `json:"lines" validate:"required,min=1,dive"`

	TaxInclusive  bool             `json:"tax_inclusive"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	TotalDiscount decimal.Decimal  `json:"total_discount"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	RoundStep     *int64           `json:"round_step,omitempty"`

	// CashBoxID selects the box receiving or paying the settled
	// amount. When unset the actor's default box is resolved.
	CashBoxID   *uuid.UUID `json:"cash_box_id,omitempty"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
	// StockCheckMode is "strict" or "none".
	StockCheckMode string `json:"stock_check_mode" validate:"omitempty,oneof=strict none"`
	Notes          string `json:"notes"`
}

// UpdateInvoiceCommand replaces the lines and payment figures of an
// existing document.
type UpdateInvoiceCommand struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
	InvoiceID uuid.UUID `json:"invoice_id" validate:"required"`

	Lines         []LineCommand    `json:"lines" validate:"required,min=1,dive"`
	TaxInclusive  bool             `json:"tax_inclusive"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	TotalDiscount decimal.Decimal  `json:"total_discount"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	RoundStep     *int64           `json:"round_step,omitempty"`

	CashBoxID      *uuid.UUID `json:"cash_box_id,omitempty"`
	StockCheckMode string     `json:"stock_check_mode" validate:"omitempty,oneof=strict none"`
}

// CancelInvoiceCommand voids a document and reverses its effects.
type CancelInvoiceCommand struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
	InvoiceID uuid.UUID `json:"invoice_id" validate:"required"`
	Reason    string    `json:"reason" validate:"max=255"`
	// RefundPaid issues an offsetting ledger entry for the settled
	// amount.
	RefundPaid bool       `json:"refund_paid"`
	CashBoxID  *uuid.UUID `json:"cash_box_id,omitempty"`
}

// RegisterPaymentCommand applies a further payment to a confirmed
// document.
type RegisterPaymentCommand struct {
	CompanyID uuid.UUID       `json:"company_id" validate:"required"`
	ActorID   uuid.UUID       `json:"actor_id" validate:"required"`
	InvoiceID uuid.UUID       `json:"invoice_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	CashBoxID *uuid.UUID      `json:"cash_box_id,omitempty"`
	Reference string          `json:"reference" validate:"max=64"`
}

// InvoiceResult is the read model returned by the service.
type InvoiceResult struct {
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	InvoiceNumber      string          `json:"invoice_number"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"payment_status"`
	GrossAmount        decimal.Decimal `json:"gross_amount"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	TotalTax           decimal.Decimal `json:"total_tax"`
	RoundingAdjustment decimal.Decimal `json:"rounding_adjustment"`
	NetAmount          decimal.Decimal `json:"net_amount"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	OverpaymentCredit  decimal.Decimal `json:"overpayment_credit"`
}
