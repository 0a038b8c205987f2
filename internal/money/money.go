package money

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// FromString parses decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// Mul multiplies two decimals, rounds to 2 places
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(2)
}

// ApplyRate computes amount * (ratePercent/100), rounded to cents.
// EUR amounts carry two decimals throughout.
func ApplyRate(amount decimal.Decimal, ratePercent int) decimal.Decimal {
	if ratePercent == 0 {
		return Zero
	}
	rate := decimal.NewFromInt(int64(ratePercent))
	hundred := decimal.NewFromInt(100)
	return amount.Mul(rate).Div(hundred).Round(2)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}

// Format renders a decimal with exactly two decimal places,
// the form the wire format expects for every monetary field.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
