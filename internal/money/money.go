// Package money provides the rounding and tax-decomposition primitives used
// by every other component of the closing engine.
//
// Amounts cross API and storage boundaries as plain float64 (two-decimal
// currency values), but every calculation in this package goes through
// shopspring/decimal so binary floating-point drift never leaks into a
// persisted figure.
package money

import (
	"github.com/shopspring/decimal"
)

// DefaultVATRate is the VAT rate applied to the pre-discount gross amount.
const DefaultVATRate = 0.15

// Round rounds a monetary amount to 2 decimal places (half away from zero).
//
// Round is total over all float64 inputs and idempotent:
// Round(Round(x)) == Round(x) for every x.
func Round(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Tax returns the VAT portion of amount at the default rate.
func Tax(amount float64) float64 {
	return TaxAt(amount, DefaultVATRate)
}

// TaxAt returns Round(amount * rate).
func TaxAt(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Round(2).
		InexactFloat64()
}

// NetFromGross extracts the net amount from a VAT-inclusive gross at the
// default rate.
func NetFromGross(gross float64) float64 {
	return NetFromGrossAt(gross, DefaultVATRate)
}

// NetFromGrossAt returns Round(gross / (1 + rate)).
//
// The decomposition is an approximate inverse: for any gross >= 0,
// NetFromGrossAt(gross, r) + TaxAt(NetFromGrossAt(gross, r), r) equals gross
// within one cent. Callers must tolerate the ±0.01 slack; it is a documented
// property of two-decimal rounding, not a defect.
func NetFromGrossAt(gross, rate float64) float64 {
	divisor := decimal.NewFromFloat(1).Add(decimal.NewFromFloat(rate))
	return decimal.NewFromFloat(gross).
		Div(divisor).
		Round(2).
		InexactFloat64()
}

// Sum adds the given amounts exactly and rounds the result to 2 decimals.
func Sum(xs ...float64) float64 {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(decimal.NewFromFloat(x))
	}
	return total.Round(2).InexactFloat64()
}
