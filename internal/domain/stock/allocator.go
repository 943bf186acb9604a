package stock

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/backoffice/settlement/internal/domain/shared"
)

// CheckMode controls whether availability is enforced before a
// deduction.
type CheckMode string

const (
	// ModeStrict rejects any line whose demand exceeds the allocatable
	// quantity.
	ModeStrict CheckMode = "strict"
	// ModeNone skips the availability check entirely. Deductions can
	// still fail when the lots run dry.
	ModeNone CheckMode = "none"
)

// DemandLine is one line of demand to check against its lots.
type DemandLine struct {
	Index       int
	Name        string
	TracksStock bool
	Quantity    decimal.Decimal
	Lots        []*Lot
}

// Allocation records how much was taken from or added to one lot.
type Allocation struct {
	LotID    uuid.UUID
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// AvailableQuantity sums the allocatable quantity across the lots,
// ignoring unavailable and expired ones.
func AvailableQuantity(lots []*Lot, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		if lot.IsAllocatable() && !lot.IsExpired(now) {
			total = total.Add(lot.Quantity)
		}
	}
	return total
}

// CheckAvailability verifies every stock-tracked line against its
// lots. ModeNone short-circuits without touching the lots at all.
// Errors name the first failing line by index so callers can surface
// which entry of the document is short.
func CheckAvailability(lines []DemandLine, mode CheckMode, now time.Time) *shared.DomainError {
	if mode == ModeNone {
		return nil
	}

	for _, line := range lines {
		if !line.TracksStock {
			continue
		}
		available := AvailableQuantity(line.Lots, now)
		if line.Quantity.GreaterThan(available) {
			return shared.ErrInsufficientStock.
				WithMessagef("line %d (%s): requested %s, available %s",
					line.Index, line.Name, line.Quantity, available).
				WithDetails(map[string]any{
					"line_index": line.Index,
					"requested":  line.Quantity.String(),
					"available":  available.String(),
				})
		}
	}
	return nil
}

// DeductOldestFirst takes quantity from the allocatable lots in FIFO
// order and returns one allocation per touched lot. The whole demand
// must be satisfiable or nothing is deducted.
func DeductOldestFirst(lots []*Lot, quantity decimal.Decimal, now time.Time) ([]Allocation, *shared.DomainError) {
	if quantity.IsNegative() {
		return nil, shared.ErrValidation.WithMessagef("deduction quantity cannot be negative: %s", quantity)
	}
	if quantity.IsZero() {
		return nil, nil
	}
	if quantity.GreaterThan(AvailableQuantity(lots, now)) {
		return nil, shared.ErrInsufficientStock.WithMessagef(
			"requested %s, available %s", quantity, AvailableQuantity(lots, now))
	}

	ordered := sortedByAge(lots)
	remaining := quantity
	allocations := make([]Allocation, 0, 2)
	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		if !lot.IsAllocatable() || lot.IsExpired(now) {
			continue
		}
		taken := lot.Deduct(remaining)
		remaining = remaining.Sub(taken)
		allocations = append(allocations, Allocation{LotID: lot.ID, Quantity: taken, UnitCost: lot.UnitCost})
	}
	return allocations, nil
}

// ReturnNewestFirst puts a returned quantity back onto the newest lot.
func ReturnNewestFirst(lots []*Lot, quantity decimal.Decimal) (*Allocation, *shared.DomainError) {
	if quantity.IsNegative() {
		return nil, shared.ErrValidation.WithMessagef("return quantity cannot be negative: %s", quantity)
	}
	if len(lots) == 0 {
		return nil, shared.ErrNotFound.WithMessagef("no lot to return quantity to")
	}

	ordered := sortedByAge(lots)
	newest := ordered[len(ordered)-1]
	newest.Add(quantity)
	return &Allocation{LotID: newest.ID, Quantity: quantity, UnitCost: newest.UnitCost}, nil
}

// DecrementNewestFirst removes quantity walking the lots from newest
// to oldest. Unlike deduction this is a correction path: it ignores
// availability ordering semantics but still refuses to leave a
// remainder.
func DecrementNewestFirst(lots []*Lot, quantity decimal.Decimal) ([]Allocation, *shared.DomainError) {
	if quantity.IsNegative() {
		return nil, shared.ErrValidation.WithMessagef("decrement quantity cannot be negative: %s", quantity)
	}
	if quantity.IsZero() {
		return nil, nil
	}

	ordered := sortedByAge(lots)
	remaining := quantity
	allocations := make([]Allocation, 0, 2)
	for i := len(ordered) - 1; i >= 0 && !remaining.IsZero(); i-- {
		lot := ordered[i]
		if !lot.Quantity.IsPositive() {
			continue
		}
		taken := lot.Deduct(remaining)
		remaining = remaining.Sub(taken)
		allocations = append(allocations, Allocation{LotID: lot.ID, Quantity: taken, UnitCost: lot.UnitCost})
	}

	if !remaining.IsZero() {
		// Roll the partial decrement back so the caller never sees a
		// half-applied correction.
		for _, a := range allocations {
			for _, lot := range ordered {
				if lot.ID == a.LotID {
					lot.Add(a.Quantity)
				}
			}
		}
		return nil, shared.ErrInsufficientStock.WithMessagef(
			"cannot decrement %s, short by %s", quantity, remaining)
	}
	return allocations, nil
}

// WeightedUnitCost returns the quantity-weighted average unit cost of
// the allocations, zero when nothing was allocated.
func WeightedUnitCost(allocations []Allocation) decimal.Decimal {
	totalQty := decimal.Zero
	totalCost := decimal.Zero
	for _, a := range allocations {
		totalQty = totalQty.Add(a.Quantity)
		totalCost = totalCost.Add(a.Quantity.Mul(a.UnitCost))
	}
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return totalCost.Div(totalQty).Round(4)
}

// sortedByAge returns the lots ordered oldest to newest without
// mutating the input slice. Ties break on the lot ID for a stable
// order.
func sortedByAge(lots []*Lot) []*Lot {
	ordered := make([]*Lot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID.String() < ordered[j].ID.String()
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}
