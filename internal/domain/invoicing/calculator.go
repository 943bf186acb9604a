package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// LineInput is a single invoice line as entered at the boundary.
type LineInput struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	TaxRate   decimal.Decimal
}

// LineTotals holds the computed amounts for one line.
type LineTotals struct {
	GrossAmount decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
}

// DocumentInput carries the document-level calculation parameters.
type DocumentInput struct {
	// TaxInclusive selects whether unit prices already contain tax.
	TaxInclusive bool
	// TaxRate, when set, overrides the per-line rates for every line.
	TaxRate *decimal.Decimal
	// TotalDiscount is an additional document-level discount applied
	// on top of the per-line discounts.
	TotalDiscount decimal.Decimal
	// PaidAmount is the amount already settled against the document.
	PaidAmount decimal.Decimal
	// RoundStep, when set, rounds the net amount to the nearest
	// multiple of this step. The delta is kept as RoundingAdjustment.
	RoundStep *int64
}

// DocumentTotals is the full calculation result for a document.
type DocumentTotals struct {
	Lines              []LineTotals
	GrossAmount        decimal.Decimal
	TotalDiscount      decimal.Decimal
	TotalTax           decimal.Decimal
	RoundingAdjustment decimal.Decimal
	NetAmount          decimal.Decimal
	PaidAmount         decimal.Decimal
	RemainingAmount    decimal.Decimal
}

// CalculateLine computes the totals for a single line.
//
// In exclusive mode tax is added on top of the discounted amount. In
// inclusive mode the discounted amount already contains tax, which is
// backed out as amount - amount/(1+rate/100); the line total stays
// equal to the discounted amount.
func CalculateLine(in LineInput, taxInclusive bool) (LineTotals, *shared.DomainError) {
	if in.Quantity.IsNegative() {
		return LineTotals{}, shared.ErrValidation.WithMessagef("line quantity cannot be negative: %s", in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return LineTotals{}, shared.ErrValidation.WithMessagef("line unit price cannot be negative: %s", in.UnitPrice)
	}
	if in.Discount.IsNegative() {
		return LineTotals{}, shared.ErrValidation.WithMessagef("line discount cannot be negative: %s", in.Discount)
	}
	if in.TaxRate.IsNegative() {
		return LineTotals{}, shared.ErrValidation.WithMessagef("line tax rate cannot be negative: %s", in.TaxRate)
	}

	gross := in.Quantity.Mul(in.UnitPrice)
	if in.Discount.GreaterThan(gross) {
		return LineTotals{}, shared.ErrValidation.WithMessagef("line discount %s exceeds line amount %s", in.Discount, gross)
	}
	afterDiscount := gross.Sub(in.Discount)

	var subtotal, tax decimal.Decimal
	if taxInclusive {
		divisor := one.Add(in.TaxRate.Div(hundred))
		tax = afterDiscount.Sub(afterDiscount.Div(divisor)).Round(4)
		subtotal = afterDiscount.Sub(tax)
	} else {
		subtotal = afterDiscount
		tax = subtotal.Mul(in.TaxRate).Div(hundred).Round(4)
	}

	return LineTotals{
		GrossAmount: gross,
		Discount:    in.Discount,
		Subtotal:    subtotal,
		TaxRate:     in.TaxRate,
		TaxAmount:   tax,
		Total:       subtotal.Add(tax),
	}, nil
}

// CalculateTotals computes the full document totals from its lines.
//
// Gross is the sum of quantity*unit_price before any discount. In
// exclusive mode net = gross - discounts + tax; in inclusive mode the
// tax is already inside gross, so net = gross - discounts and the tax
// total is informational only. The rounding step, when present, applies
// to the net amount alone and never redistributes into the tax figures.
func CalculateTotals(lines []LineInput, doc DocumentInput) (DocumentTotals, *shared.DomainError) {
	if len(lines) == 0 {
		return DocumentTotals{}, shared.ErrValidation.WithMessagef("document must have at least one line")
	}
	if doc.TotalDiscount.IsNegative() {
		return DocumentTotals{}, shared.ErrValidation.WithMessagef("document discount cannot be negative: %s", doc.TotalDiscount)
	}
	if doc.PaidAmount.IsNegative() {
		return DocumentTotals{}, shared.ErrValidation.WithMessagef("paid amount cannot be negative: %s", doc.PaidAmount)
	}
	if doc.RoundStep != nil && *doc.RoundStep <= 0 {
		return DocumentTotals{}, shared.ErrValidation.WithMessagef("round step must be positive: %d", *doc.RoundStep)
	}

	result := DocumentTotals{
		Lines:      make([]LineTotals, 0, len(lines)),
		PaidAmount: doc.PaidAmount,
	}

	lineDiscounts := decimal.Zero
	for i, in := range lines {
		if doc.TaxRate != nil {
			in.TaxRate = *doc.TaxRate
		}
		lt, err := CalculateLine(in, doc.TaxInclusive)
		if err != nil {
			return DocumentTotals{}, err.WithDetails(map[string]any{"line_index": i})
		}
		result.Lines = append(result.Lines, lt)
		result.GrossAmount = result.GrossAmount.Add(lt.GrossAmount)
		result.TotalTax = result.TotalTax.Add(lt.TaxAmount)
		lineDiscounts = lineDiscounts.Add(lt.Discount)
	}

	result.TotalDiscount = lineDiscounts.Add(doc.TotalDiscount)
	if result.TotalDiscount.GreaterThan(result.GrossAmount) {
		return DocumentTotals{}, shared.ErrValidation.WithMessagef(
			"total discount %s exceeds gross amount %s", result.TotalDiscount, result.GrossAmount)
	}

	net := result.GrossAmount.Sub(result.TotalDiscount)
	if !doc.TaxInclusive {
		net = net.Add(result.TotalTax)
	}

	if doc.RoundStep != nil {
		rounded := roundToStep(net, *doc.RoundStep)
		result.RoundingAdjustment = rounded.Sub(net)
		net = rounded
	}

	result.NetAmount = net
	result.RemainingAmount = net.Sub(doc.PaidAmount)
	return result, nil
}

// roundToStep rounds d to the nearest multiple of step, half away from
// zero.
func roundToStep(d decimal.Decimal, step int64) decimal.Decimal {
	s := decimal.NewFromInt(step)
	return d.Div(s).Round(0).Mul(s)
}
