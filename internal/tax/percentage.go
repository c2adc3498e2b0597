package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// PercentageCalculator calculates tax using a single rate on subtotal plus
// shipping.
type PercentageCalculator struct {
	rate decimal.Decimal
	name string
}

// NewPercentageCalculator creates a new percentage-based tax calculator.
// rate is a fraction: 0.20 for 20%.
func NewPercentageCalculator(rate float64) Calculator {
	return &PercentageCalculator{
		rate: decimal.NewFromFloat(rate),
		name: "VAT",
	}
}

// CalculateTax computes tax on subtotal + shipping using the configured rate.
// Half a cent rounds away from zero.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	if c.rate.IsNegative() || c.rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidTaxRate
	}

	taxable := decimal.NewFromInt32(params.ShippingCents)
	for _, item := range params.LineItems {
		taxable = taxable.Add(decimal.NewFromInt32(item.TotalPrice))
	}

	amount := taxable.Mul(c.rate).Round(0)
	if !amount.LessThanOrEqual(decimal.NewFromInt32(maxCents)) {
		return nil, ErrAmountOverflow
	}
	cents := int32(amount.IntPart())

	rate, _ := c.rate.Float64()
	return &TaxResult{
		TotalTaxCents: cents,
		Breakdown: []TaxBreakdown{{
			Jurisdiction: "country",
			Name:         c.name,
			Rate:         rate,
			AmountCents:  cents,
		}},
	}, nil
}

const maxCents = 1<<31 - 1
