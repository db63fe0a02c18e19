package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tillpos/internal/domain"
	"tillpos/internal/money"
	"tillpos/internal/textnorm"
)

var (
	reCode = regexp.MustCompile(`^[0-9]{1,20}$`)
	reID   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	rePIN  = regexp.MustCompile(`^[0-9]{4,8}$`)
)

var (
	ErrCodeRequired  = errors.New("code is required and must be digits only")
	ErrNameRequired  = errors.New("name is required")
	ErrPriceInvalid  = errors.New("price must be positive")
	ErrCostInvalid   = errors.New("cost must be positive")
	ErrCostNotBelow  = errors.New("price must be greater than cost")
	ErrAmountInvalid = errors.New("amount must be a positive number")
)

// Token trims a product-field entry and caps its length.
func Token(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 60 {
		s = string(r[:60])
	}
	return s, true
}

// IsCode reports whether the token has the catalog's code format.
func IsCode(s string) bool { return reCode.MatchString(strings.TrimSpace(s)) }

// Amount parses the quantity field. An empty field yields nil: the caller
// decides the default.
func Amount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := money.Parse(s)
	if err != nil || !d.IsPositive() {
		return nil, ErrAmountInvalid
	}
	return &d, nil
}

// Tender parses the cash handed over. Empty means "exact amount".
func Tender(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := money.Parse(s)
	if err != nil || d.IsNegative() {
		return nil, ErrAmountInvalid
	}
	d = money.Round(d)
	return &d, nil
}

// PaymentMethod accepts the canonical names plus unaccented/english aliases.
func PaymentMethod(s string) (domain.PaymentMethod, bool) {
	switch textnorm.Normalize(s) {
	case "CARTAO", "CARD":
		return domain.PaymentCard, true
	case "DINHEIRO", "CASH":
		return domain.PaymentCash, true
	case "PIX":
		return domain.PaymentPix, true
	}
	return "", false
}

// ID validates a simple resource identifier (order/product ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// PIN checks the shape of a manager PIN before it is compared.
func PIN(s string) bool { return rePIN.MatchString(s) }

// Product checks a catalog definition the way the product form does.
func Product(p domain.Product) error {
	if !reCode.MatchString(p.Code) {
		return ErrCodeRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if !p.Price.IsPositive() {
		return ErrPriceInvalid
	}
	if p.Cost.Valid {
		if !p.Cost.Decimal.IsPositive() {
			return ErrCostInvalid
		}
		if !p.Price.GreaterThan(p.Cost.Decimal) {
			return ErrCostNotBelow
		}
	}
	return nil
}

var ErrPeriodInvalid = errors.New("dates must be YYYY-MM-DD or full timestamps, start before end")

// Period normalises an optional [start, end] filter to the stored timestamp
// layout. A bare date covers the whole day.
func Period(start, end string) (string, string, error) {
	s, err := bound(start, "T00:00:00.000Z")
	if err != nil {
		return "", "", err
	}
	e, err := bound(end, "T23:59:59.999Z")
	if err != nil {
		return "", "", err
	}
	if s != "" && e != "" && s > e {
		return "", "", ErrPeriodInvalid
	}
	return s, e, nil
}

func bound(s, dayEdge string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02") + dayEdge, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", ErrPeriodInvalid
	}
	return t.UTC().Format(domain.TimeLayout), nil
}
