package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		lines      []Line
		subtotal   string
		vat        string
		grandTotal string
	}{
		{
			name: "two lines rounds vat half-up",
			lines: []Line{
				{Quantity: 2, UnitPrice: d("12.500")},
				{Quantity: 1, UnitPrice: d("3.250")},
			},
			subtotal:   "28.250",
			vat:        "1.413",
			grandTotal: "29.663",
		},
		{
			name:       "no lines",
			subtotal:   "0.000",
			vat:        "0.000",
			grandTotal: "0.000",
		},
		{
			name:       "zero quantity contributes nothing",
			lines:      []Line{{Quantity: 0, UnitPrice: d("99.999")}},
			subtotal:   "0.000",
			vat:        "0.000",
			grandTotal: "0.000",
		},
		{
			name: "half below rounds down",
			lines: []Line{
				{Quantity: 1, UnitPrice: d("0.009")},
			},
			subtotal:   "0.009",
			vat:        "0.000",
			grandTotal: "0.009",
		},
		{
			name: "exact half rounds up",
			lines: []Line{
				{Quantity: 1, UnitPrice: d("0.010")},
			},
			subtotal:   "0.010",
			vat:        "0.001",
			grandTotal: "0.011",
		},
		{
			name: "large quantities",
			lines: []Line{
				{Quantity: 1000, UnitPrice: d("1.234")},
				{Quantity: 3, UnitPrice: d("0.333")},
			},
			subtotal:   "1234.999",
			vat:        "61.750",
			grandTotal: "1296.749",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default().Aggregate(tt.lines)
			assert.Equal(t, tt.subtotal, Format(got.Subtotal))
			assert.Equal(t, tt.vat, Format(got.VAT))
			assert.Equal(t, tt.grandTotal, Format(got.GrandTotal))
		})
	}
}

func TestAggregateInvariants(t *testing.T) {
	lines := []Line{
		{Quantity: 7, UnitPrice: d("1.115")},
		{Quantity: 13, UnitPrice: d("0.205")},
		{Quantity: 1, UnitPrice: d("250.001")},
	}
	calc := Default()
	got := calc.Aggregate(lines)

	exact := decimal.Zero
	for _, l := range lines {
		exact = exact.Add(decimal.NewFromInt(l.Quantity).Mul(l.UnitPrice))
	}
	assert.True(t, got.Subtotal.Equal(exact), "subtotal must be the exact sum")
	assert.True(t, got.VAT.Equal(exact.Mul(DefaultVATRate).Round(3)))
	assert.True(t, got.GrandTotal.Equal(got.Subtotal.Add(got.VAT).Round(3)))
}

func TestAggregateIsPure(t *testing.T) {
	lines := []Line{{Quantity: 2, UnitPrice: d("12.500")}}
	calc := Default()
	first := calc.Aggregate(lines)
	second := calc.Aggregate(lines)
	assert.Equal(t, first, second)
	assert.Equal(t, "12.5", lines[0].UnitPrice.String())
}

func TestNewCalculator(t *testing.T) {
	_, err := NewCalculator(d("-0.01"))
	assert.Error(t, err)

	_, err = NewCalculator(d("1"))
	assert.Error(t, err)

	calc, err := NewCalculator(d("0.15"))
	require.NoError(t, err)
	assert.Equal(t, "VAT 15%", calc.VATLabel())
	assert.Equal(t, "VAT 5%", Default().VATLabel())
}

func TestHasValidPrecision(t *testing.T) {
	assert.True(t, HasValidPrecision(d("1.234")))
	assert.True(t, HasValidPrecision(d("10")))
	assert.False(t, HasValidPrecision(d("1.2345")))
}
