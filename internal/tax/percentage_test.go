package tax_test

import (
	"context"
	"math"
	"testing"

	"github.com/dukerupert/vatcheck/internal/tax"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Subtotal €25 (2500 cents) + shipping €5 (500 cents) at 20% = €6.00
func Test_PercentageCalculator_Example(t *testing.T) {
	calc := tax.NewPercentageCalculator(0.20)

	params := tax.TaxParams{
		LineItems: []tax.LineItem{
			{
				ProductID:   uuid.New(),
				Description: "Moka pot",
				Quantity:    1,
				UnitPrice:   2500,
				TotalPrice:  2500,
				TaxCategory: "standard",
			},
		},
		ShippingCents: 500,
	}

	result, err := calc.CalculateTax(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, int32(600), result.TotalTaxCents, "(2500 + 500) * 0.20 = 600 cents")
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "country", result.Breakdown[0].Jurisdiction)
	assert.Equal(t, "VAT", result.Breakdown[0].Name)
	assert.Equal(t, 0.20, result.Breakdown[0].Rate)
	assert.Equal(t, int32(600), result.Breakdown[0].AmountCents)
	assert.False(t, result.IsEstimate)
}

func Test_PercentageCalculator_EURates(t *testing.T) {
	tests := []struct {
		name        string
		rate        float64
		subtotal    int32
		shipping    int32
		expectedTax int32
	}{
		{name: "zero rate", rate: 0.0, subtotal: 10000, shipping: 500, expectedTax: 0},
		{name: "luxembourg 17%", rate: 0.17, subtotal: 10000, shipping: 0, expectedTax: 1700},
		{name: "germany 19%", rate: 0.19, subtotal: 5000, shipping: 1000, expectedTax: 1140},
		{name: "france 20%", rate: 0.20, subtotal: 7500, shipping: 500, expectedTax: 1600},
		{name: "netherlands 21%", rate: 0.21, subtotal: 8000, shipping: 0, expectedTax: 1680},
		{name: "hungary 27%", rate: 0.27, subtotal: 10000, shipping: 0, expectedTax: 2700},
		{name: "germany reduced 7%", rate: 0.07, subtotal: 4800, shipping: 0, expectedTax: 336},
		{name: "full rate edge case", rate: 1.0, subtotal: 5000, shipping: 0, expectedTax: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := tax.NewPercentageCalculator(tt.rate)

			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
				LineItems:     []tax.LineItem{{TotalPrice: tt.subtotal}},
				ShippingCents: tt.shipping,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTax, result.TotalTaxCents)
			assert.Equal(t, tt.rate, result.Breakdown[0].Rate)
		})
	}
}

func Test_PercentageCalculator_RoundingBehavior(t *testing.T) {
	tests := []struct {
		name        string
		rate        float64
		subtotal    int32
		shipping    int32
		expectedTax int32
		explanation string
	}{
		{name: "rounds up above midpoint", rate: 0.08, subtotal: 1062, expectedTax: 85, explanation: "1062 * 0.08 = 84.96"},
		{name: "rounds down below midpoint", rate: 0.08, subtotal: 1040, expectedTax: 83, explanation: "1040 * 0.08 = 83.2"},
		{name: "exact midpoint rounds up", rate: 0.19, subtotal: 1050, expectedTax: 200, explanation: "1050 * 0.19 = 199.5"},
		{name: "complex rounding with shipping", rate: 0.085, subtotal: 4723, shipping: 387, expectedTax: 434, explanation: "(4723 + 387) * 0.085 = 434.35"},
		{name: "fractional cents", rate: 0.065, subtotal: 1537, expectedTax: 100, explanation: "1537 * 0.065 = 99.905"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := tax.NewPercentageCalculator(tt.rate)

			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
				LineItems:     []tax.LineItem{{TotalPrice: tt.subtotal}},
				ShippingCents: tt.shipping,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedTax, result.TotalTaxCents, tt.explanation)
		})
	}
}

// Floating point gives 0.29 * 50 = 14.499999999999998, which math.Round
// takes down. Decimal arithmetic does not.
func Test_PercentageCalculator_DecimalPrecision(t *testing.T) {
	amount, rate := 50.0, 0.29
	assert.Equal(t, 14.0, math.Round(amount*rate))

	result, err := tax.NewPercentageCalculator(0.29).CalculateTax(context.Background(), tax.TaxParams{
		LineItems: []tax.LineItem{{TotalPrice: 50}},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(15), result.TotalTaxCents)
}

func Test_PercentageCalculator_MultipleLineItems(t *testing.T) {
	calc := tax.NewPercentageCalculator(0.21)

	params := tax.TaxParams{
		LineItems: []tax.LineItem{
			{ProductID: uuid.New(), Description: "Grinder", Quantity: 1, UnitPrice: 12900, TotalPrice: 12900},
			{ProductID: uuid.New(), Description: "Filters", Quantity: 3, UnitPrice: 450, TotalPrice: 1350},
			{ProductID: uuid.New(), Description: "Cup", Quantity: 2, UnitPrice: 800, TotalPrice: 1600},
		},
		ShippingCents: 695,
	}

	result, err := calc.CalculateTax(context.Background(), params)

	require.NoError(t, err)
	// (12900 + 1350 + 1600 + 695) * 0.21 = 3474.45
	assert.Equal(t, int32(3474), result.TotalTaxCents)
	assert.Len(t, result.Breakdown, 1)
}

func Test_PercentageCalculator_InvalidRate(t *testing.T) {
	for _, rate := range []float64{-0.1, 1.5} {
		_, err := tax.NewPercentageCalculator(rate).CalculateTax(context.Background(), tax.TaxParams{})

		assert.ErrorIs(t, err, tax.ErrInvalidTaxRate)
		var taxErr *tax.TaxError
		if assert.ErrorAs(t, err, &taxErr) {
			assert.Equal(t, "invalid", taxErr.ErrorCode())
		}
	}
}

func Test_PercentageCalculator_Overflow(t *testing.T) {
	_, err := tax.NewPercentageCalculator(1.0).CalculateTax(context.Background(), tax.TaxParams{
		LineItems:     []tax.LineItem{{TotalPrice: math.MaxInt32}},
		ShippingCents: math.MaxInt32,
	})

	assert.ErrorIs(t, err, tax.ErrAmountOverflow)
}
