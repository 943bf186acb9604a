package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// InvoiceItem is a single line on an invoice. Amounts are computed by
// the calculator and stored denormalized so a stored invoice never
// needs recalculation to be read.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
	// TracksStock marks whether this line participates in stock
	// allocation. Service lines and non-tracked products leave it false
	// and the allocator skips them.
	TracksStock bool       `json:"tracks_stock"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
}

// NewInvoiceItem creates an invoice item from a line input and its
// computed totals.
func NewInvoiceItem(invoiceID uuid.UUID, name string, in LineInput, totals LineTotals) (*InvoiceItem, *shared.DomainError) {
	if name == "" {
		return nil, shared.ErrValidation.WithMessagef("item name cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.ErrValidation.WithMessagef("item invoice id cannot be empty")
	}

	return &InvoiceItem{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  invoiceID,
		Name:       name,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		Discount:   totals.Discount,
		Subtotal:   totals.Subtotal,
		TaxRate:    totals.TaxRate,
		TaxAmount:  totals.TaxAmount,
		Total:      totals.Total,
	}, nil
}

// AssignStock links the item to a stock-tracked product.
func (i *InvoiceItem) AssignStock(productID uuid.UUID, variantID, warehouseID *uuid.UUID) {
	i.ProductID = &productID
	i.VariantID = variantID
	i.WarehouseID = warehouseID
	i.TracksStock = true
	i.Touch()
}

// SetCost records the resolved unit cost and the derived line cost.
func (i *InvoiceItem) SetCost(unitCost decimal.Decimal) {
	i.CostPrice = unitCost
	i.TotalCost = unitCost.Mul(i.Quantity)
	i.Touch()
}

// Profit returns the line margin, total revenue minus total cost.
func (i *InvoiceItem) Profit() decimal.Decimal {
	return i.Subtotal.Sub(i.TotalCost)
}
