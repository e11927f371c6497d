package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyRoundTrip(t *testing.T) {
	d, err := decimal.NewFromString("123.45")
	require.NoError(t, err)

	micros := FromDecimal(d)
	assert.Equal(t, int64(123_450_000), micros)

	m := NewMoney(micros)
	assert.True(t, m.ToDecimal().Equal(d))
	assert.Equal(t, "123.45", m.String())
}

func TestFromDecimalTruncatesBelowMicro(t *testing.T) {
	d, err := decimal.NewFromString("0.0000009")
	require.NoError(t, err)
	assert.Equal(t, int64(0), FromDecimal(d))
}

func TestMoneyNegative(t *testing.T) {
	m := NewMoney(-2_500_000)
	assert.Equal(t, "-2.50", m.String())
	assert.Equal(t, int64(-2_500_000), FromDecimal(m.ToDecimal()))
}
