package domain

import (
	"github.com/shopspring/decimal"
)

// Money represents a wallet amount. Amounts are stored as BIGINT micros
// (10^-6) to avoid floating point errors; the API speaks decimal strings.
type Money struct {
	Amount int64 // micros
}

// NewMoney creates a Money instance from micros.
func NewMoney(amount int64) Money {
	return Money{Amount: amount}
}

// ToDecimal converts the int64 micros to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(1_000_000))
}

// FromDecimal converts a decimal.Decimal to int64 micros.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(1_000_000)).IntPart()
}

// String returns the fixed two-decimal representation used in descriptions.
func (m Money) String() string {
	return m.ToDecimal().StringFixed(2)
}
