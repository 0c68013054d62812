package provider

import (
	"github.com/shopspring/decimal"
)

// MinorUnits converts a major-unit amount to minor units (cents, paisa).
// The amount is rounded to two decimals first so values like 12.30 always
// convert to exactly 1230; float drift here would be a real financial bug.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
}

// MajorUnits converts a minor-unit amount back to major units.
func MajorUnits(minor int64) float64 {
	f, _ := decimal.New(minor, -2).Float64()
	return f
}

// FormatAmount renders an amount as a two-decimal string, the form
// string-amount providers expect on the wire.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).Round(2).StringFixed(2)
}
