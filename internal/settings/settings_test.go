package settings_test

import (
	"context"
	"testing"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Load(t *testing.T) {
	want := vat.Config{ManagementEnabled: true, ExcludedCountry: "FR"}

	got, err := settings.Static(want).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncodeDecode(t *testing.T) {
	cfg := vat.Config{
		ManagementEnabled: true,
		ManualModeEnabled: false,
		AutoCheckEnabled:  true,
		ExcludedCountry:   " fr ",
	}

	values := settings.Encode(cfg)
	assert.Equal(t, map[string]string{
		settings.KeyManagement: "1",
		settings.KeyManualMode: "0",
		settings.KeyChecking:   "1",
		settings.KeyCountry:    "FR",
	}, values)

	decoded, err := settings.Decode(values)
	require.NoError(t, err)
	cfg.ExcludedCountry = "FR"
	assert.Equal(t, cfg, decoded)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		want    vat.Config
		wantErr bool
	}{
		{name: "empty map", values: map[string]string{}, want: vat.Config{}},
		{name: "true spelled out", values: map[string]string{settings.KeyManagement: "true"}, want: vat.Config{ManagementEnabled: true}},
		{name: "unknown keys ignored", values: map[string]string{"PS_SHOP_NAME": "x", settings.KeyChecking: "1"}, want: vat.Config{AutoCheckEnabled: true}},
		{name: "bad boolean", values: map[string]string{settings.KeyManualMode: "yes please"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := settings.Decode(tt.values)
			if tt.wantErr {
				assert.True(t, domain.IsCode(err, domain.EINVALID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		country string
		wantErr bool
	}{
		{country: ""},
		{country: "FR"},
		{country: "FX"},
		{country: "XI"},
		{country: "US"},
		{country: "ZZ", wantErr: true},
		{country: "France", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			err := settings.Validate(vat.Config{ExcludedCountry: tt.country})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			assert.Contains(t, domain.GetValidationFields(err), "excluded_country")
		})
	}
}

func TestKeys(t *testing.T) {
	assert.ElementsMatch(t, settings.Keys(), []string{"VATNUMBER_MANAGEMENT", "VATNUMBER_MANUAL_MODE", "VATNUMBER_CHECKING", "VATNUMBER_COUNTRY"})
}
