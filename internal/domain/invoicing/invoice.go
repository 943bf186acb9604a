package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// InvoiceKind distinguishes the commercial direction of a document.
type InvoiceKind string

const (
	KindSale     InvoiceKind = "SALE"
	KindPurchase InvoiceKind = "PURCHASE"
)

// IsValid checks whether the kind is a known value.
func (k InvoiceKind) IsValid() bool {
	return k == KindSale || k == KindPurchase
}

// InvoiceStatus is the document lifecycle state.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "DRAFT"
	StatusConfirmed     InvoiceStatus = "CONFIRMED"
	StatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	StatusPaid          InvoiceStatus = "PAID"
	StatusCancelled     InvoiceStatus = "CANCELLED"
	StatusRefunded      InvoiceStatus = "REFUNDED"
)

// PaymentStatus reflects how much of the net amount has been settled.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
	PaymentOverpaid      PaymentStatus = "OVERPAID"
)

// validTransitions describes the allowed lifecycle moves.
var validTransitions = map[InvoiceStatus][]InvoiceStatus{
	StatusDraft:         {StatusConfirmed, StatusCancelled},
	StatusConfirmed:     {StatusPartiallyPaid, StatusPaid, StatusCancelled},
	StatusPartiallyPaid: {StatusPaid, StatusConfirmed, StatusCancelled},
	StatusPaid:          {StatusPartiallyPaid, StatusRefunded, StatusCancelled},
	StatusCancelled:     {},
	StatusRefunded:      {},
}

// Invoice is the settlement document aggregate. All monetary figures
// are denormalized results of the calculator so that reads never
// recompute them.
type Invoice struct {
	shared.CompanyAggregateRoot
	InvoiceNumber  string          `json:"invoice_number"`
	Kind           InvoiceKind     `json:"kind"`
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	CashBoxID      *uuid.UUID      `json:"cash_box_id,omitempty"`
	WarehouseID    *uuid.UUID      `json:"warehouse_id,omitempty"`
	Items          []InvoiceItem   `json:"items"`
	Status         InvoiceStatus   `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`

	TaxInclusive       bool             `json:"tax_inclusive"`
	TaxRate            *decimal.Decimal `json:"tax_rate,omitempty"`
	RoundStep          *int64           `json:"round_step,omitempty"`
	GrossAmount        decimal.Decimal  `json:"gross_amount"`
	TotalDiscount      decimal.Decimal  `json:"total_discount"`
	TotalTax           decimal.Decimal  `json:"total_tax"`
	RoundingAdjustment decimal.Decimal  `json:"rounding_adjustment"`
	NetAmount          decimal.Decimal  `json:"net_amount"`
	PaidAmount         decimal.Decimal  `json:"paid_amount"`
	RemainingAmount    decimal.Decimal  `json:"remaining_amount"`

	// IsAggregated marks the document as already counted into the
	// daily summaries. The stats handler flips it exactly once.
	IsAggregated bool       `json:"is_aggregated"`
	IssueDate    time.Time  `json:"issue_date"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// NewInvoice creates a draft invoice without items or totals. Items and
// amounts are applied afterwards through ApplyTotals.
func NewInvoice(companyID, counterpartyID uuid.UUID, number string, kind InvoiceKind, issueDate time.Time) (*Invoice, *shared.DomainError) {
	if companyID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("company id cannot be empty")
	}
	if counterpartyID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("counterparty id cannot be empty")
	}
	if number == "" {
		return nil, shared.ErrValidation.WithMessagef("invoice number cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.ErrValidation.WithMessagef("invalid invoice kind: %s", kind)
	}

	inv := &Invoice{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		InvoiceNumber:        number,
		Kind:                 kind,
		CounterpartyID:       counterpartyID,
		Status:               StatusDraft,
		PaymentStatus:        PaymentUnpaid,
		IssueDate:            issueDate,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// ApplyTotals replaces the invoice items and amounts with a fresh
// calculation result. Only drafts and confirmed documents may change.
func (inv *Invoice) ApplyTotals(items []InvoiceItem, totals DocumentTotals, in DocumentInput) *shared.DomainError {
	if inv.Status == StatusCancelled || inv.Status == StatusRefunded {
		return shared.ErrInvalidState.WithMessagef("invoice %s cannot be modified in status %s", inv.InvoiceNumber, inv.Status)
	}
	if len(items) != len(totals.Lines) {
		return shared.ErrValidation.WithMessagef("item count %d does not match calculated line count %d", len(items), len(totals.Lines))
	}

	inv.Items = items
	inv.TaxInclusive = in.TaxInclusive
	inv.TaxRate = in.TaxRate
	inv.RoundStep = in.RoundStep
	inv.GrossAmount = totals.GrossAmount
	inv.TotalDiscount = totals.TotalDiscount
	inv.TotalTax = totals.TotalTax
	inv.RoundingAdjustment = totals.RoundingAdjustment
	inv.NetAmount = totals.NetAmount
	inv.PaidAmount = totals.PaidAmount
	inv.RemainingAmount = totals.RemainingAmount
	inv.refreshPaymentStatus()
	if inv.Status != StatusDraft {
		inv.syncStatusWithPayment()
	}
	inv.Touch()
	return nil
}

// Confirm moves a draft into the confirmed state, making it eligible
// for stock allocation and settlement.
func (inv *Invoice) Confirm() *shared.DomainError {
	if err := inv.transitionTo(StatusConfirmed); err != nil {
		return err
	}
	inv.AddDomainEvent(NewInvoiceConfirmedEvent(inv))
	return nil
}

// RegisterPayment applies a settled amount to the document. Negative
// deltas represent refunded portions. The lifecycle status follows the
// payment status for confirmed documents.
func (inv *Invoice) RegisterPayment(delta decimal.Decimal) *shared.DomainError {
	if inv.Status == StatusDraft || inv.Status == StatusCancelled || inv.Status == StatusRefunded {
		return shared.ErrInvalidState.WithMessagef("invoice %s cannot accept payments in status %s", inv.InvoiceNumber, inv.Status)
	}

	inv.PaidAmount = inv.PaidAmount.Add(delta)
	if inv.PaidAmount.IsNegative() {
		return shared.ErrValidation.WithMessagef("paid amount cannot go negative on invoice %s", inv.InvoiceNumber)
	}
	inv.RemainingAmount = inv.NetAmount.Sub(inv.PaidAmount)
	inv.refreshPaymentStatus()
	inv.syncStatusWithPayment()
	inv.AddDomainEvent(NewInvoicePaymentRegisteredEvent(inv, delta))
	inv.Touch()
	return nil
}

// Cancel voids the document. The caller is responsible for reversing
// stock and ledger effects in the same unit of work.
func (inv *Invoice) Cancel(reason string) *shared.DomainError {
	if err := inv.transitionTo(StatusCancelled); err != nil {
		return err
	}
	if reason != "" {
		inv.Notes = reason
	}
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, reason))
	return nil
}

// MarkAggregated records that the document has been counted into the
// daily summaries. Returns false when it was already counted.
func (inv *Invoice) MarkAggregated() bool {
	if inv.IsAggregated {
		return false
	}
	inv.IsAggregated = true
	inv.Touch()
	return true
}

// ClearAggregated re-opens the document for aggregation after its
// amounts changed.
func (inv *Invoice) ClearAggregated() {
	inv.IsAggregated = false
	inv.Touch()
}

// StockDirection reports how confirmed quantities move for this kind:
// sales deduct stock, purchases add to it.
func (inv *Invoice) StockDirection() int {
	if inv.Kind == KindSale {
		return -1
	}
	return 1
}

// TotalCost returns the summed line costs of the document.
func (inv *Invoice) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range inv.Items {
		total = total.Add(inv.Items[i].TotalCost)
	}
	return total
}

// syncStatusWithPayment lines the lifecycle status up with the
// payment status for documents past the draft stage.
func (inv *Invoice) syncStatusWithPayment() {
	switch inv.PaymentStatus {
	case PaymentPaid, PaymentOverpaid:
		inv.Status = StatusPaid
	case PaymentPartiallyPaid:
		inv.Status = StatusPartiallyPaid
	case PaymentUnpaid:
		inv.Status = StatusConfirmed
	}
}

func (inv *Invoice) refreshPaymentStatus() {
	switch {
	case inv.PaidAmount.IsZero():
		inv.PaymentStatus = PaymentUnpaid
	case inv.PaidAmount.LessThan(inv.NetAmount):
		inv.PaymentStatus = PaymentPartiallyPaid
	case inv.PaidAmount.Equal(inv.NetAmount):
		inv.PaymentStatus = PaymentPaid
	default:
		inv.PaymentStatus = PaymentOverpaid
	}
}

func (inv *Invoice) transitionTo(target InvoiceStatus) *shared.DomainError {
	for _, allowed := range validTransitions[inv.Status] {
		if allowed == target {
			inv.Status = target
			inv.Touch()
			return nil
		}
	}
	return shared.ErrInvalidState.WithMessagef(
		"invoice %s cannot transition from %s to %s", inv.InvoiceNumber, inv.Status, target)
}
