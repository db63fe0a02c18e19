package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CurrencyPlaces = 2
	QuantityPlaces = 3
)

var ErrNotANumber = errors.New("not a number")

// Round rounds a currency value to cents.
func Round(d decimal.Decimal) decimal.Decimal { return d.Round(CurrencyPlaces) }

// RoundQty rounds a quantity to the precision the scale can report.
func RoundQty(d decimal.Decimal) decimal.Decimal { return d.Round(QuantityPlaces) }

// LineTotal is round(unit × amount, 2).
func LineTotal(unit, amount decimal.Decimal) decimal.Decimal {
	return Round(unit.Mul(amount))
}

// Sum adds already-rounded values and rounds the result.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round(total)
}

// Parse accepts operator input such as "1,5", "1.500" or "R$ 12,90".
// Thousands separators are not supported; a single comma is treated as the decimal mark.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNotANumber
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotANumber
	}
	return d, nil
}

// Positive returns the value when it is above zero, zero otherwise.
func Positive(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}
