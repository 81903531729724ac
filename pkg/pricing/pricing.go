// Package pricing computes quotation totals. All amounts carry three
// fractional digits; rounding is half-up and happens once per derived value.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every amount is rounded and printed to.
const Places int32 = 3

// DefaultVATRate is the VAT applied to the subtotal when no rate is configured.
var DefaultVATRate = decimal.RequireFromString("0.05")

var hundred = decimal.NewFromInt(100)

// Line is the pricing view of a quotation line.
type Line struct {
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Totals are the derived amounts of a quotation.
type Totals struct {
	Subtotal   decimal.Decimal
	VAT        decimal.Decimal
	GrandTotal decimal.Decimal
}

// Calculator aggregates quotation lines at a fixed VAT rate.
type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator creates a calculator for the given VAT rate (0.05 is 5%).
func NewCalculator(rate decimal.Decimal) (*Calculator, error) {
	if rate.IsNegative() {
		return nil, errors.New("vat rate cannot be negative")
	}
	if rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errors.New("vat rate must be a fraction below 1")
	}
	return &Calculator{rate: rate}, nil
}

// Default returns a calculator using DefaultVATRate.
func Default() *Calculator {
	return &Calculator{rate: DefaultVATRate}
}

// Rate returns the VAT rate.
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// LineTotal returns quantity * unitPrice. No rounding: a 3-digit price times
// an integer quantity is already exact at 3 digits.
func (c *Calculator) LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(unitPrice)
}

// Aggregate sums the lines in order and derives VAT and grand total.
func (c *Calculator) Aggregate(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(c.LineTotal(l.Quantity, l.UnitPrice))
	}

	vat := Round(subtotal.Mul(c.rate))

	return Totals{
		Subtotal:   subtotal,
		VAT:        vat,
		GrandTotal: Round(subtotal.Add(vat)),
	}
}

// VATLabel renders the rate as a row label, e.g. "VAT 5%".
func (c *Calculator) VATLabel() string {
	return "VAT " + c.rate.Mul(hundred).String() + "%"
}

// Round rounds half-up to Places. decimal.Round rounds half away from zero,
// which is half-up for the non-negative amounts a quotation carries.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format prints d with exactly Places fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// HasValidPrecision reports whether d fits in Places fractional digits.
func HasValidPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Places))
}
