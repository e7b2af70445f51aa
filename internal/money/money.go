// Package money holds the canonical currency rounding used everywhere a
// charge is computed. All amounts are rounded once, half-up, to 2 decimals.
package money

import "github.com/shopspring/decimal"

// Round rounds v to 2 decimal places, half away from zero. Round(10.005)
// yields 10.01, not the banker's 10.00.
func Round(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

// Mul multiplies price by factor and rounds the result to 2 decimals in one
// step, so intermediate float error cannot leak into the rounded charge.
func Mul(price, factor float64) float64 {
	out, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(factor)).
		Round(2).
		Float64()
	return out
}
