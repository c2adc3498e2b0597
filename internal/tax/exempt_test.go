package tax_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/tax"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{ err error }

func (s failingSource) Load(context.Context) (vat.Config, error) {
	return vat.Config{}, s.err
}

func TestVATExemptCalculator(t *testing.T) {
	cfg := settings.Static{ManagementEnabled: true, ExcludedCountry: "FR"}

	tests := []struct {
		name          string
		country       string
		vatNumber     string
		wantDelegated bool
		wantReason    string
	}{
		{name: "foreign business", country: "DE", vatNumber: "DE171017618", wantReason: tax.ExemptReverseCharge},
		{name: "home country business", country: "FR", vatNumber: "FR12345678901", wantDelegated: true},
		{name: "manual exemption", country: "FR", vatNumber: vat.ExemptionFlag, wantReason: tax.ExemptManualExemption},
		{name: "consumer", country: "DE", wantDelegated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := tax.NewMockCalculator()
			next.CalculateTaxFunc = func(ctx context.Context, params tax.TaxParams) (*tax.TaxResult, error) {
				return &tax.TaxResult{TotalTaxCents: 600}, nil
			}
			calc := tax.NewVATExemptCalculator(next, cfg)

			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
				ShippingAddress: tax.Address{Country: tt.country},
				LineItems:       []tax.LineItem{{TotalPrice: 3000}},
				Company:         "Acme",
				VATNumber:       tt.vatNumber,
			})
			require.NoError(t, err)

			if tt.wantDelegated {
				assert.Len(t, next.Calls, 1)
				assert.Equal(t, int32(600), result.TotalTaxCents)
				assert.Empty(t, result.ExemptReason)
				return
			}
			assert.Empty(t, next.Calls)
			assert.Equal(t, int32(0), result.TotalTaxCents)
			assert.Equal(t, tt.wantReason, result.ExemptReason)
		})
	}
}

func TestVATExemptCalculator_ManagementDisabled(t *testing.T) {
	next := tax.NewMockCalculator()
	calc := tax.NewVATExemptCalculator(next, settings.Static{ExcludedCountry: "FR"})

	_, err := calc.CalculateTax(context.Background(), tax.TaxParams{
		ShippingAddress: tax.Address{Country: "DE"},
		VATNumber:       "DE171017618",
	})

	require.NoError(t, err)
	assert.Len(t, next.Calls, 1)
}

func TestVATExemptCalculator_SettingsError(t *testing.T) {
	boom := errors.New("settings unavailable")
	calc := tax.NewVATExemptCalculator(tax.NewNoTaxCalculator(), failingSource{err: boom})

	_, err := calc.CalculateTax(context.Background(), tax.TaxParams{})

	assert.ErrorIs(t, err, boom)
}
