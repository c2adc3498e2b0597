package tax

import (
	"context"
	"fmt"

	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/vat"
)

const (
	ExemptReverseCharge   = "reverse_charge"
	ExemptManualExemption = "manual_exemption"
)

// VATExemptCalculator zero-rates orders whose shipping address carries a VAT
// exemption and delegates everything else.
type VATExemptCalculator struct {
	next     Calculator
	settings settings.Source
}

// NewVATExemptCalculator wraps next.
func NewVATExemptCalculator(next Calculator, src settings.Source) *VATExemptCalculator {
	return &VATExemptCalculator{next: next, settings: src}
}

func (c *VATExemptCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	cfg, err := c.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load VAT settings: %w", err)
	}

	addr := vat.Address{
		Country:   params.ShippingAddress.Country,
		Company:   params.Company,
		VATNumber: vat.DecodeLegacy(params.VATNumber),
	}
	if !vat.ExemptionApplies(addr, cfg) {
		return c.next.CalculateTax(ctx, params)
	}

	reason := ExemptReverseCharge
	if addr.VATNumber.IsManualExemption() {
		reason = ExemptManualExemption
	}
	return &TaxResult{ExemptReason: reason}, nil
}
