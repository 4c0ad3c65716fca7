package market

import (
	"math"

	"github.com/shopspring/decimal"
)

// Fraction is a ratio of notional or of an initial fixing, as used by
// reverse convertible terms: 0.70 means 70%.
type Fraction float64

// Percent is a whole-number percentage, as used by capital protected
// note terms: 100 means 100%.
type Percent float64

// Percent converts a fraction to whole-number percent units.
func (f Fraction) Percent() Percent {
	return Percent(float64(f) * 100)
}

// Fraction converts whole-number percent units to a fraction.
func (p Percent) Fraction() Fraction {
	return Fraction(float64(p) / 100)
}

// Float returns the raw value.
func (f Fraction) Float() float64 { return float64(f) }

// Float returns the raw value.
func (p Percent) Float() float64 { return float64(p) }

const divEpsilon = 1e-12

// SafeDiv returns a/b, or 0 when b is zero (or close enough to it) or the
// quotient is not a finite number.
func SafeDiv(a, b float64) float64 {
	if math.Abs(b) < divEpsilon {
		return 0
	}
	q := a / b
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// RoundCash rounds a currency amount to cents, half away from zero.
func RoundCash(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// RoundTo rounds x to the given number of decimals.
func RoundTo(x float64, decimals int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Round(decimals).InexactFloat64()
}
