package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/internal/domain"
	"tillpos/internal/validate"
)

func TestAmount(t *testing.T) {
	a, err := validate.Amount("")
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = validate.Amount("0,750")
	require.NoError(t, err)
	assert.Equal(t, "0.75", a.String())

	_, err = validate.Amount("0")
	assert.ErrorIs(t, err, validate.ErrAmountInvalid)
	_, err = validate.Amount("-2")
	assert.ErrorIs(t, err, validate.ErrAmountInvalid)
	_, err = validate.Amount("x")
	assert.ErrorIs(t, err, validate.ErrAmountInvalid)
}

func TestTender(t *testing.T) {
	v, err := validate.Tender("25,004")
	require.NoError(t, err)
	assert.Equal(t, "25", v.String())

	v, err = validate.Tender(" ")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestPaymentMethod(t *testing.T) {
	for in, want := range map[string]domain.PaymentMethod{
		"cartão": domain.PaymentCard, "CARTAO": domain.PaymentCard,
		"dinheiro": domain.PaymentCash, "cash": domain.PaymentCash, "pix": domain.PaymentPix,
	} {
		got, ok := validate.PaymentMethod(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := validate.PaymentMethod("cheque")
	assert.False(t, ok)
}

func TestTokenAndCode(t *testing.T) {
	tok, ok := validate.Token("  7891 ")
	assert.True(t, ok)
	assert.Equal(t, "7891", tok)
	assert.True(t, validate.IsCode(tok))
	assert.False(t, validate.IsCode("pao"))
	_, ok = validate.Token("   ")
	assert.False(t, ok)
}

func TestProductDefinition(t *testing.T) {
	p := domain.Product{
		Code:  "10",
		Name:  "Café",
		Price: decimal.RequireFromString("10"),
		Cost:  decimal.NewNullDecimal(decimal.RequireFromString("6")),
	}
	require.NoError(t, validate.Product(p))

	p.Cost = decimal.NewNullDecimal(decimal.RequireFromString("10"))
	assert.ErrorIs(t, validate.Product(p), validate.ErrCostNotBelow)

	p.Cost = decimal.NullDecimal{}
	p.Code = "A1"
	assert.ErrorIs(t, validate.Product(p), validate.ErrCodeRequired)
}

func TestPeriod(t *testing.T) {
	s, e, err := validate.Period("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", s)
	assert.Equal(t, "2024-03-31T23:59:59.999Z", e)

	s, e, err = validate.Period("2024-03-01T12:30:00-03:00", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T15:30:00.000Z", s)
	assert.Empty(t, e)

	_, _, err = validate.Period("2024-04-01", "2024-03-01")
	assert.ErrorIs(t, err, validate.ErrPeriodInvalid)
	_, _, err = validate.Period("yesterday", "")
	assert.ErrorIs(t, err, validate.ErrPeriodInvalid)
}

func TestPIN(t *testing.T) {
	assert.True(t, validate.PIN("1234"))
	assert.True(t, validate.PIN("12345678"))
	assert.False(t, validate.PIN("123"))
	assert.False(t, validate.PIN("12a4"))
}
