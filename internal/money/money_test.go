package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	a := FromCents(50000)
	b := FromCents(5000)

	assert.Equal(t, FromCents(55000), a.Add(b))
	assert.Equal(t, FromCents(45000), a.Sub(b))
	assert.Equal(t, int64(50000), a.Cents())
}

func TestMulFractionRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		fraction string
		want     int64
	}{
		{"ten percent of 10000", 10000, "0.10", 1000},
		{"rounds half up", 125, "0.10", 13},    // 12.5 -> 13
		{"rounds down below half", 124, "0.10", 12}, // 12.4 -> 12
		{"five percent of odd gross", 333, "0.05", 17}, // 16.65 -> 17
		{"zero gross", 0, "0.10", 0},
		{"full fraction", 55000, "1.0", 55000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fraction, err := decimal.NewFromString(tt.fraction)
			require.NoError(t, err)
			got := FromCents(tt.cents).MulFraction(fraction)
			assert.Equal(t, FromCents(tt.want), got)
		})
	}
}

func TestClampZero(t *testing.T) {
	assert.Equal(t, FromCents(0), FromCents(-100).ClampZero())
	assert.Equal(t, FromCents(100), FromCents(100).ClampZero())
	assert.True(t, FromCents(-1).IsNegative())
	assert.False(t, FromCents(0).IsNegative())
}

func TestFromDecimalString(t *testing.T) {
	m, err := FromDecimalString("1234.56")
	require.NoError(t, err)
	assert.Equal(t, FromCents(123456), m)
	assert.Equal(t, "1234.56", m.String())

	_, err = FromDecimalString("not-a-number")
	assert.Error(t, err)
}

func TestCmp(t *testing.T) {
	assert.Equal(t, -1, FromCents(1).Cmp(FromCents(2)))
	assert.Equal(t, 1, FromCents(2).Cmp(FromCents(1)))
	assert.Equal(t, 0, FromCents(2).Cmp(FromCents(2)))
}
