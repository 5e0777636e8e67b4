// Package money holds the fixed-point helpers shared by order pricing and the
// customer ledger. Amounts are decimal with two fractional digits.
package money

import "github.com/shopspring/decimal"

const Places = 2

// TaxRate is applied to the order subtotal.
var TaxRate = decimal.RequireFromString("0.10")

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// NonNegative returns d, or zero when d is negative.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Tax computes the rounded tax for a subtotal.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Mul(TaxRate))
}

// Parse reads a config-supplied amount and rounds it.
func Parse(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(d), nil
}
