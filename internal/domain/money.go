package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts cross service boundaries as decimal strings with two fractional
// digits. They are parsed into shopspring decimals at the edge and never
// handled as floats.

// ParseAmount parses a wire amount. The empty string is rejected; so is
// anything that is not a finite decimal.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ParsePositiveAmount additionally requires the amount to be > 0.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", d)
	}
	return d, nil
}

// FormatAmount renders an amount for the wire, fixed to two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Commission computes amount * rate / 100 rounded to the currency minor unit
// using banker's rounding (round half to even).
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100)).RoundBank(2)
}
