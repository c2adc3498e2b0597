package vat_test

import (
	"testing"

	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestIsCountryCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"DE", true},
		{"GR", true},
		{"XI", true},
		{"FX", true},
		{"US", true},
		{"CH", true},
		{"de", false},
		{"ZZ", false},
		{"DEU", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, vat.IsCountryCode(tt.code))
		})
	}
}

func TestRegisterCountryValidation(t *testing.T) {
	v := validator.New()
	vat.RegisterCountryValidation(v)

	assert.NoError(t, v.Var("XI", vat.CountryTag))
	assert.NoError(t, v.Var("FX", vat.CountryTag))
	assert.Error(t, v.Var("Northern Ireland", vat.CountryTag))
	assert.NoError(t, v.Struct(vat.Config{ExcludedCountry: "FX"}))
	assert.NoError(t, v.Struct(vat.Config{}))
	assert.Error(t, v.Struct(vat.Config{ExcludedCountry: "ZZ"}))
}
