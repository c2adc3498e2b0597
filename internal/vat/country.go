package vat

import (
	"github.com/go-playground/validator/v10"
)

// CountryTag is the validation tag for address countries. It accepts ISO
// 3166-1 alpha-2 codes and the extra codes of the prefix table (XI, FX).
const CountryTag = "vat_country"

var isoCodes = validator.New()

// IsCountryCode reports whether code is an uppercase ISO 3166-1 alpha-2
// code or a key of the prefix table.
func IsCountryCode(code string) bool {
	if _, ok := prefixes[code]; ok {
		return true
	}
	return isoCodes.Var(code, "iso3166_1_alpha2") == nil
}

// RegisterCountryValidation adds CountryTag to v.
func RegisterCountryValidation(v *validator.Validate) {
	err := v.RegisterValidation(CountryTag, func(fl validator.FieldLevel) bool {
		return IsCountryCode(fl.Field().String())
	})
	if err != nil {
		panic("vat: register country validation: " + err.Error())
	}
}
