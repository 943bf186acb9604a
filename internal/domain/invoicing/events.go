package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated           = "InvoiceCreated"
	EventTypeInvoiceConfirmed         = "InvoiceConfirmed"
	EventTypeInvoicePaymentRegistered = "InvoicePaymentRegistered"
	EventTypeInvoiceCancelled         = "InvoiceCancelled"
)

// InvoiceCreatedEvent is raised when a new invoice draft is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID   `json:"invoice_id"`
	InvoiceNumber  string      `json:"invoice_number"`
	Kind           InvoiceKind `json:"kind"`
	CounterpartyID uuid.UUID   `json:"counterparty_id"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Kind:            inv.Kind,
		CounterpartyID:  inv.CounterpartyID,
	}
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return EventTypeInvoiceCreated
}

// InvoiceItemInfo carries line information inside events
type InvoiceItemInfo struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// InvoiceConfirmedEvent is raised when a draft becomes eligible for
// stock allocation and settlement
type InvoiceConfirmedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	InvoiceNumber string            `json:"invoice_number"`
	Kind          InvoiceKind       `json:"kind"`
	Items         []InvoiceItemInfo `json:"items"`
	NetAmount     decimal.Decimal   `json:"net_amount"`
}

// NewInvoiceConfirmedEvent creates a new InvoiceConfirmedEvent
func NewInvoiceConfirmedEvent(inv *Invoice) *InvoiceConfirmedEvent {
	items := make([]InvoiceItemInfo, len(inv.Items))
	for i := range inv.Items {
		item := &inv.Items[i]
		items[i] = InvoiceItemInfo{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		}
	}
	return &InvoiceConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceConfirmed, AggregateTypeInvoice, inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Kind:            inv.Kind,
		Items:           items,
		NetAmount:       inv.NetAmount,
	}
}

// EventType returns the event type name
func (e *InvoiceConfirmedEvent) EventType() string {
	return EventTypeInvoiceConfirmed
}

// InvoicePaymentRegisteredEvent is raised when a settled amount is
// applied to the document
type InvoicePaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	Delta           decimal.Decimal `json:"delta"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
}

// NewInvoicePaymentRegisteredEvent creates a new InvoicePaymentRegisteredEvent
func NewInvoicePaymentRegisteredEvent(inv *Invoice, delta decimal.Decimal) *InvoicePaymentRegisteredEvent {
	return &InvoicePaymentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentRegistered, AggregateTypeInvoice, inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Delta:           delta,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
		PaymentStatus:   inv.PaymentStatus,
	}
}

// EventType returns the event type name
func (e *InvoicePaymentRegisteredEvent) EventType() string {
	return EventTypeInvoicePaymentRegistered
}

// InvoiceCancelledEvent is raised when a document is voided
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Reason        string    `json:"reason,omitempty"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, reason string) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID, inv.CompanyID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return EventTypeInvoiceCancelled
}
