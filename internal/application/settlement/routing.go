package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/invoicing"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/domain/treasury"
)

// PaymentRoute describes where a settled amount goes: the ledger leg
// against a cash box and any credit held against the counterparty for
// the overpaid excess.
type PaymentRoute struct {
	// BoxTransactionType is the ledger leg the full paid amount books
	// as.
	BoxTransactionType treasury.TransactionType
	// BoxAmount is the full amount moving through the box, always
	// positive, zero when nothing was paid.
	BoxAmount decimal.Decimal
	// CounterpartyCredit is the overpaid excess expressed from the
	// counterparty's point of view. Positive means the counterparty
	// can claim it back from us, negative means they owe it to us.
	CounterpartyCredit decimal.Decimal
}

// kindRouting fixes the ledger directions and credit sign per document
// kind. Money received for a sale enters the box; money paid for a
// purchase leaves it. A customer who overpays a sale holds a claim
// against us (+1), so the excess deposits into their own box; a
// supplier we overpaid owes the excess back (-1), so theirs takes a
// withdrawal.
var kindRouting = map[invoicing.InvoiceKind]struct {
	boxType          treasury.TransactionType
	counterpartyType treasury.TransactionType
	creditSign       int64
}{
	invoicing.KindSale: {
		boxType:          treasury.TransactionTypeDeposit,
		counterpartyType: treasury.TransactionTypeDeposit,
		creditSign:       1,
	},
	invoicing.KindPurchase: {
		boxType:          treasury.TransactionTypeWithdrawal,
		counterpartyType: treasury.TransactionTypeWithdrawal,
		creditSign:       -1,
	},
}

// RoutePayment resolves how a paid amount books against the treasury
// for a document of the given kind and net amount.
func RoutePayment(kind invoicing.InvoiceKind, netAmount, paidAmount decimal.Decimal) (PaymentRoute, *shared.DomainError) {
	rule, ok := kindRouting[kind]
	if !ok {
		return PaymentRoute{}, shared.ErrValidation.WithMessagef("no payment routing for kind %s", kind)
	}
	if paidAmount.IsNegative() {
		return PaymentRoute{}, shared.ErrValidation.WithMessagef("paid amount cannot be negative: %s", paidAmount)
	}

	route := PaymentRoute{
		BoxTransactionType: rule.boxType,
		BoxAmount:          paidAmount,
		CounterpartyCredit: decimal.Zero,
	}

	excess := paidAmount.Sub(netAmount)
	if excess.IsPositive() {
		route.CounterpartyCredit = excess.Mul(decimal.NewFromInt(rule.creditSign))
	}
	return route, nil
}

// CounterpartyLeg resolves the ledger leg that books a change in
// overpaid excess against the counterparty's own cash box. A negative
// delta claws a previously booked credit back through the offsetting
// leg.
func CounterpartyLeg(kind invoicing.InvoiceKind, excessDelta decimal.Decimal) (treasury.TransactionType, *shared.DomainError) {
	rule, ok := kindRouting[kind]
	if !ok {
		return "", shared.ErrValidation.WithMessagef("no payment routing for kind %s", kind)
	}
	if excessDelta.IsNegative() {
		return oppositeLeg(rule.counterpartyType), nil
	}
	return rule.counterpartyType, nil
}

// ReverseRoute returns the offsetting ledger leg for a previously
// booked amount, used when a document is cancelled or a payment is
// reduced.
func ReverseRoute(kind invoicing.InvoiceKind) (treasury.TransactionType, *shared.DomainError) {
	rule, ok := kindRouting[kind]
	if !ok {
		return "", shared.ErrValidation.WithMessagef("no payment routing for kind %s", kind)
	}
	return oppositeLeg(rule.boxType), nil
}

func oppositeLeg(t treasury.TransactionType) treasury.TransactionType {
	if t == treasury.TransactionTypeDeposit {
		return treasury.TransactionTypeWithdrawal
	}
	return treasury.TransactionTypeDeposit
}
