package address

import (
	"context"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/vat"
)

// VATValidator checks the VAT number on an address. It loads one settings
// snapshot per call and rewrites the stored VAT string to the normalized
// form, or to the exemption flag when the customer requested an exemption.
type VATValidator struct {
	validator *vat.Validator
	settings  settings.Source
}

// NewVATValidator creates a VAT validator hook.
func NewVATValidator(v *vat.Validator, src settings.Source) *VATValidator {
	return &VATValidator{validator: v, settings: src}
}

func (v *VATValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	const op = "address.validate_vat"

	cfg, err := v.settings.Load(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load VAT settings")
	}

	d := v.validator.Validate(ctx, vat.Address{
		Country:            addr.Country,
		Company:            addr.Company,
		VATNumber:          vat.DecodeLegacy(addr.VATNumber),
		ExemptionRequested: addr.ExemptionRequested,
	}, cfg)

	addr.VATNumber = d.Number.Legacy()
	if d.Accepted() {
		return valid(addr), nil
	}

	field := "vat_number"
	if d.Reason == vat.ReasonMissingCompany {
		field = "company"
	}
	return &ValidationResult{
		NormalizedAddress: &addr,
		Errors: []ValidationError{{
			Field:   field,
			Message: d.Reason.Message(),
		}},
	}, nil
}
