package internal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("VIES_TIMEOUT", "")
	t.Setenv("VAT_EXCLUDED_COUNTRY", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, uint16(3000), cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.VIES.Timeout)
	assert.Equal(t, 3, cfg.VIES.Attempts)
	assert.Equal(t, time.Second, cfg.VIES.Pause)
	assert.Equal(t, "vat.registry.inconclusive", cfg.NATS.Subject)
	assert.True(t, cfg.VAT.AutoCheckEnabled)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "8080")
	t.Setenv("VIES_TIMEOUT", "500ms")
	t.Setenv("VIES_ATTEMPTS", "5")
	t.Setenv("VAT_MANAGEMENT_ENABLED", "true")
	t.Setenv("VAT_EXCLUDED_COUNTRY", " fr ")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.VIES.Timeout)
	assert.Equal(t, 5, cfg.VIES.Attempts)
	assert.True(t, cfg.VAT.ManagementEnabled)
	assert.Equal(t, "FR", cfg.VAT.ExcludedCountry)
}

func TestNewConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero attempts", key: "VIES_ATTEMPTS", value: "0"},
		{name: "negative pause", key: "VIES_PAUSE", value: "-1s"},
		{name: "unknown country", key: "VAT_EXCLUDED_COUNTRY", value: "ZZ"},
		{name: "rate as percent", key: "TAX_RATE", value: "19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := NewConfig()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestNewConfig_ExcludedCountry(t *testing.T) {
	for _, code := range []string{"FX", "XI", "US"} {
		t.Run(code, func(t *testing.T) {
			t.Setenv("VAT_EXCLUDED_COUNTRY", code)
			cfg, err := NewConfig()
			require.NoError(t, err)
			assert.Equal(t, code, cfg.VAT.ExcludedCountry)
		})
	}
}

func TestNewConfig_UnknownEnvFallsBackToProd(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "verbose")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "warn")

	logger.Info().Msg("hidden")
	logger.Warn().Str("country", "DE").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "prod logs are JSON")
	assert.Contains(t, out, `"country":"DE"`)
}
