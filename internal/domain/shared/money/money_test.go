package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(10000, " eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", m.Currency)
	assert.Equal(t, int64(10000), m.Cents)

	_, err = New(100, "euro")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestArithmetic(t *testing.T) {
	a := Must(10000, "EUR")
	b := Must(2550, "EUR")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(12550), sum.Cents)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(7450), diff.Cents)

	_, err = a.Add(Must(100, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	assert.Equal(t, int64(40000), a.Times(4).Cents)
}

func TestString(t *testing.T) {
	assert.Equal(t, "100.00 EUR", Must(10000, "EUR").String())
	assert.Equal(t, "25.05 EUR", Must(2505, "EUR").String())
}
