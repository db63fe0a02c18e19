package draft_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/internal/domain"
	"tillpos/internal/draft"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amt(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func unit(price string) domain.Product {
	return domain.Product{ID: "p-" + price, Code: "10", Name: "Café", Price: dec(price)}
}

func weighed(price string) domain.Product {
	return domain.Product{ID: "w-" + price, Code: "1", Name: "Pão", Price: dec(price), IsFractioned: true}
}

func TestAddDefaultsUnitAmountToOne(t *testing.T) {
	d := draft.New()
	line, err := d.Add(unit("10.00"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Code)
	assert.True(t, line.Amount.Equal(dec("1")))
	assert.True(t, line.Subtotal.Equal(dec("10")))
}

func TestAddRoundsUnitAmount(t *testing.T) {
	d := draft.New()
	line, err := d.Add(unit("10.00"), amt("2.7"))
	require.NoError(t, err)
	assert.True(t, line.Amount.Equal(dec("3")), "got %s", line.Amount)
	assert.True(t, line.Subtotal.Equal(dec("30")))

	_, err = d.Add(unit("10.00"), amt("0.4"))
	assert.ErrorIs(t, err, draft.ErrInvalidAmount)
	assert.Equal(t, 1, d.Len())
}

func TestAddWeighedWithoutAmountNeedsAmount(t *testing.T) {
	d := draft.New()
	_, err := d.Add(weighed("16.90"), nil)
	assert.ErrorIs(t, err, draft.ErrNeedsAmount)
	assert.True(t, d.IsEmpty())

	line, err := d.Add(weighed("16.90"), amt("0.3456"))
	require.NoError(t, err)
	assert.True(t, line.Amount.Equal(dec("0.346")))
	// 16.90 * 0.346 = 5.8474
	assert.True(t, line.Subtotal.Equal(dec("5.85")), "got %s", line.Subtotal)
}

func TestTotalIsSumOfRoundedSubtotals(t *testing.T) {
	d := draft.New()
	inputs := []struct {
		p   domain.Product
		amt *decimal.Decimal
	}{
		{weighed("0.335"), amt("1")},
		{weighed("0.335"), amt("1")},
		{unit("19.99"), amt("3")},
		{weighed("49.90"), amt("0.127")},
	}
	want := decimal.Zero
	for _, in := range inputs {
		line, err := d.Add(in.p, in.amt)
		require.NoError(t, err)
		want = want.Add(in.p.Price.Mul(line.Amount).Round(2))
	}
	assert.True(t, d.Total().Equal(want), "total %s want %s", d.Total(), want)
	// per-line rounding: 0.34 + 0.34, not round(0.67)
	assert.True(t, d.Total().Equal(dec("66.99")), "got %s", d.Total())
}

func TestRemoveKeepsOtherCodes(t *testing.T) {
	d := draft.New()
	for i := 0; i < 3; i++ {
		_, err := d.Add(unit("1.00"), nil)
		require.NoError(t, err)
	}
	require.NoError(t, d.Remove(2))
	assert.ErrorIs(t, d.Remove(2), draft.ErrLineNotFound)

	codes := []int{}
	for _, l := range d.Lines() {
		codes = append(codes, l.Code)
	}
	assert.Equal(t, []int{1, 3}, codes)

	line, err := d.Add(unit("1.00"), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Code, "codes are never reused within a draft")
	assert.Equal(t, 2, d.Index(4))
}

func TestResetRestartsCodesAndKey(t *testing.T) {
	d := draft.New()
	key := d.Key()
	_, _ = d.Add(unit("1.00"), nil)
	_, _ = d.Add(unit("1.00"), nil)

	d.Reset()
	assert.True(t, d.IsEmpty())
	assert.True(t, d.Total().IsZero())
	assert.NotEqual(t, key, d.Key())

	line, err := d.Add(unit("1.00"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Code)
}

func TestLineKeepsProductSnapshot(t *testing.T) {
	d := draft.New()
	p := unit("10.00")
	line, err := d.Add(p, nil)
	require.NoError(t, err)

	p.Price = dec("99")
	p.Name = "changed"
	got, ok := d.Line(line.Code)
	require.True(t, ok)
	assert.True(t, got.Product.Price.Equal(dec("10")))
	assert.Equal(t, "Café", got.Product.Name)
}
