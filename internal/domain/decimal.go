// Package domain defines the core data structures of the PNL engine: raw account changes,
// wallets, wallet snapshots, extra information and auto-invest subscriptions.
package domain

import (
	"github.com/shopspring/decimal"
)

// Scale maximum number of fractional digits kept by divisions.
const Scale int32 = 8

var (
	// One convenience constant for reference-currency prices.
	One = decimal.NewFromInt(1)
)

// Div divides a by b rounding half away from zero to Scale fractional digits.
// Division by zero yields zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, Scale)
}

// NiceString formats a decimal without trailing zeros.
func NiceString(d decimal.Decimal) string {
	return d.String()
}

// MustDecimal parses s, panicking on malformed input. Only meant for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
