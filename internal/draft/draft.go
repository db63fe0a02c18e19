// Package draft holds the in-progress sale: the ordered lines an operator has
// rung up but not yet committed.
package draft

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillpos/internal/domain"
	"tillpos/internal/money"
)

var (
	// ErrNeedsAmount means a fractioned product was added without a quantity;
	// the operator must be asked for one.
	ErrNeedsAmount   = errors.New("product is sold by weight: amount required")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrLineNotFound  = errors.New("line not found")
)

type Line struct {
	Code     int             `json:"code"`
	Product  domain.Product  `json:"product"`
	Amount   decimal.Decimal `json:"amount"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Draft is owned by a single workflow and is not safe for concurrent use.
type Draft struct {
	lines []Line
	next  int
	key   string
}

func New() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// Add appends a line for product. A nil amount defaults to 1 for unit
// products; unit amounts are rounded to whole units and weighed amounts to
// three decimals.
func (d *Draft) Add(p domain.Product, amount *decimal.Decimal) (Line, error) {
	var qty decimal.Decimal
	switch {
	case amount == nil && p.IsFractioned:
		return Line{}, ErrNeedsAmount
	case amount == nil:
		qty = decimal.NewFromInt(1)
	case p.IsFractioned:
		qty = money.RoundQty(*amount)
	default:
		qty = amount.Round(0)
	}
	if !qty.IsPositive() {
		return Line{}, ErrInvalidAmount
	}

	line := Line{
		Code:     d.next,
		Product:  p,
		Amount:   qty,
		Subtotal: money.LineTotal(p.Price, qty),
	}
	d.next++
	d.lines = append(d.lines, line)
	return line, nil
}

// Remove drops the line with this draft-local code. Other codes are kept.
func (d *Draft) Remove(code int) error {
	for i, l := range d.lines {
		if l.Code == code {
			d.lines = append(d.lines[:i:i], d.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (d *Draft) Total() decimal.Decimal {
	subtotals := make([]decimal.Decimal, 0, len(d.lines))
	for _, l := range d.lines {
		subtotals = append(subtotals, l.Subtotal)
	}
	return money.Sum(subtotals...)
}

// Lines returns a copy in insertion order.
func (d *Draft) Lines() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}

func (d *Draft) Line(code int) (Line, bool) {
	for _, l := range d.lines {
		if l.Code == code {
			return l, true
		}
	}
	return Line{}, false
}

// Index returns the position of the line with this code, or -1.
func (d *Draft) Index(code int) int {
	for i, l := range d.lines {
		if l.Code == code {
			return i
		}
	}
	return -1
}

func (d *Draft) Len() int      { return len(d.lines) }
func (d *Draft) IsEmpty() bool { return len(d.lines) == 0 }

// Key identifies this draft lifetime. Committing twice with the same key
// yields the same order.
func (d *Draft) Key() string { return d.key }

// Reset empties the draft, restarts line codes at 1 and issues a new key.
func (d *Draft) Reset() {
	d.lines = nil
	d.next = 1
	d.key = uuid.NewString()
}
