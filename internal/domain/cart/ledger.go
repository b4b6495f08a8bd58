// internal/domain/cart/ledger.go
package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidQuantity is returned when adding a line with quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrLineNotFound is returned when updating a line id that is not in the cart.
	ErrLineNotFound = errors.New("line not found in cart")
)

// Rates holds the shipping fee rules a ledger computes totals with.
// Amounts are in paisa.
type Rates struct {
	ShippingFlatFee       int64
	FreeShippingThreshold int64
}

// Ledger owns the line items of a single cart. Lines keep insertion order,
// and totals are always derived from the current lines. A Ledger is not safe
// for concurrent use; each session mutates its own ledger sequentially.
type Ledger struct {
	lines []Line
	rates Rates
}

// NewLedger creates an empty ledger with the given shipping rates.
func NewLedger(rates Rates) *Ledger {
	return &Ledger{rates: rates}
}

// Restore rebuilds a ledger from previously persisted lines.
func Restore(lines []Line, rates Rates) *Ledger {
	l := NewLedger(rates)
	l.lines = append(l.lines, lines...)
	return l
}

// AddLine adds quantity of a product to the cart. If a line for the product
// already exists its quantity accumulates; otherwise a new line is appended
// with a freshly minted line id.
func (l *Ledger) AddLine(productRef string, quantity int, unitPrice int64) (Line, error) {
	if quantity < 1 {
		return Line{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if productRef == "" {
		return Line{}, fmt.Errorf("%w: product reference is empty", ErrInvalidQuantity)
	}
	if unitPrice < 0 {
		return Line{}, fmt.Errorf("%w: unit price is negative", ErrInvalidQuantity)
	}

	for i := range l.lines {
		if l.lines[i].ProductRef == productRef {
			l.lines[i].Quantity += quantity
			l.lines[i].UnitPrice = unitPrice // price may have changed since first add
			return l.lines[i], nil
		}
	}

	line := Line{
		LineID:     uuid.New().String(),
		ProductRef: productRef,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
	}
	l.lines = append(l.lines, line)
	return line, nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line entirely; a line is never persisted at quantity 0.
func (l *Ledger) UpdateQuantity(lineID string, quantity int) error {
	for i := range l.lines {
		if l.lines[i].LineID != lineID {
			continue
		}
		if quantity <= 0 {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
		} else {
			l.lines[i].Quantity = quantity
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
}

// RemoveLine removes a line if present. Removing an absent line is a no-op.
func (l *Ledger) RemoveLine(lineID string) {
	for i := range l.lines {
		if l.lines[i].LineID == lineID {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			return
		}
	}
}

// Clear empties all lines.
func (l *Ledger) Clear() {
	l.lines = nil
}

// Lines returns a copy of the current lines in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Totals recomputes the cart totals from the current lines. Shipping is a
// flat fee whenever the subtotal is positive, waived once the subtotal
// exceeds the free-shipping threshold.
func (l *Ledger) Totals() Totals {
	var t Totals
	t.LineCount = len(l.lines)
	for _, line := range l.lines {
		t.ItemCount += line.Quantity
		t.Subtotal += line.UnitPrice * int64(line.Quantity)
	}
	if t.Subtotal > 0 && t.Subtotal <= l.rates.FreeShippingThreshold {
		t.ShippingFee = l.rates.ShippingFlatFee
	}
	t.GrandTotal = t.Subtotal + t.ShippingFee
	return t
}
