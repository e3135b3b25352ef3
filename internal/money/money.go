package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount of currency in integer minor units (cents).
// All payroll arithmetic happens in minor units; fractions only appear
// transiently inside MulFraction, via decimal, never as binary floats.
type Money int64

func FromCents(cents int64) Money {
	return Money(cents)
}

// FromDecimalString parses a major-unit amount such as "1234.56".
func FromDecimalString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return Money(d.Shift(2).Round(0).IntPart()), nil
}

func (m Money) Cents() int64 {
	return int64(m)
}

func (m Money) Add(other Money) Money {
	return m + other
}

func (m Money) Sub(other Money) Money {
	return m - other
}

// MulFraction multiplies by a fraction (e.g. 0.10 for a 10% deduction),
// rounding half-up to the nearest minor unit.
func (m Money) MulFraction(fraction decimal.Decimal) Money {
	product := decimal.NewFromInt(int64(m)).Mul(fraction)
	// decimal.Round rounds half away from zero, which is half-up for the
	// non-negative amounts payroll deals in.
	return Money(product.Round(0).IntPart())
}

func (m Money) Cmp(other Money) int {
	switch {
	case m < other:
		return -1
	case m > other:
		return 1
	default:
		return 0
	}
}

func (m Money) IsNegative() bool {
	return m < 0
}

func (m Money) IsZero() bool {
	return m == 0
}

// ClampZero floors the amount at zero. Net pay must never go negative.
func (m Money) ClampZero() Money {
	if m < 0 {
		return 0
	}
	return m
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders major units with two decimals, e.g. "1234.56".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
