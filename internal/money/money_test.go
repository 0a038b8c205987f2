package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/logistia/einvoice/internal/money"
)

func TestMul_RoundsHalfUp(t *testing.T) {
	// 3 x 33.335 = 100.005 -> 100.01
	got := money.Mul(decimal.NewFromInt(3), decimal.RequireFromString("33.335"))
	assert.Equal(t, "100.01", money.Format(got))
}

func TestApplyRate(t *testing.T) {
	tests := []struct {
		amount string
		rate   int
		want   string
	}{
		{"100.00", 24, "24.00"},
		{"100.00", 13, "13.00"},
		{"100.00", 6, "6.00"},
		{"0.01", 24, "0.00"},  // 0.0024 rounds down
		{"0.03", 24, "0.01"},  // 0.0072 rounds up
		{"33.33", 24, "8.00"}, // 7.9992
		{"100.00", 0, "0.00"},
	}

	for _, tt := range tests {
		got := money.ApplyRate(decimal.RequireFromString(tt.amount), tt.rate)
		assert.Equal(t, tt.want, money.Format(got), "%s at %d%%", tt.amount, tt.rate)
	}
}

func TestSum(t *testing.T) {
	got := money.Sum([]decimal.Decimal{
		decimal.RequireFromString("10.10"),
		decimal.RequireFromString("20.20"),
		decimal.RequireFromString("0.03"),
	})
	assert.Equal(t, "30.33", money.Format(got))

	assert.True(t, money.Sum(nil).IsZero())
}

func TestFormat_AlwaysTwoDecimals(t *testing.T) {
	assert.Equal(t, "5.00", money.Format(decimal.NewFromInt(5)))
	assert.Equal(t, "5.10", money.Format(decimal.RequireFromString("5.1")))
	assert.Equal(t, "0.00", money.Format(money.Zero))
}

func TestFromString_Invalid(t *testing.T) {
	_, err := money.FromString("not-a-number")
	assert.Error(t, err)
}

func TestPredicates(t *testing.T) {
	assert.True(t, money.IsPositive(decimal.RequireFromString("0.01")))
	assert.False(t, money.IsPositive(money.Zero))
	assert.True(t, money.IsNonNegative(money.Zero))
	assert.False(t, money.IsNonNegative(decimal.RequireFromString("-0.01")))
}
