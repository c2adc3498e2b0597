package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	LogLevel    string
	Port        uint16
	DatabaseUrl string // empty runs without Postgres: static settings, no address store
	Metrics     MetricsConfig
	NATS        NATSConfig
	Sentry      SentryConfig
	Stripe      StripeConfig
	VIES        VIESConfig

	// TaxRate is the flat VAT rate quoted for non-exempt orders, 0.19 for
	// 19%. Zero quotes no tax.
	TaxRate float64

	// VAT is the settings snapshot used when no database is configured.
	VAT vat.Config
}

type MetricsConfig struct {
	Namespace string
}

// NATSConfig configures the audit event publisher. Publishing is off when
// URL is empty.
type NATSConfig struct {
	URL     string
	Subject string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string
	SampleRate  float64
	Debug       bool
}

// StripeConfig enables the tax exemption sync when SecretKey is set.
type StripeConfig struct {
	SecretKey string
}

// VIESConfig tunes the registry client.
type VIESConfig struct {
	Endpoint string
	Timeout  time.Duration
	Attempts int
	Pause    time.Duration
}

var (
	validEnvs      = []string{"dev", "prod"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func NewConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:         v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Port:        v.GetUint16("PORT"),
		DatabaseUrl: v.GetString("DATABASE_URL"),
		Metrics: MetricsConfig{
			Namespace: v.GetString("METRICS_NAMESPACE"),
		},
		NATS: NATSConfig{
			URL:     v.GetString("NATS_URL"),
			Subject: v.GetString("NATS_AUDIT_SUBJECT"),
		},
		Sentry: SentryConfig{
			DSN:         v.GetString("SENTRY_DSN"),
			Enabled:     v.GetBool("SENTRY_ENABLED"),
			Environment: v.GetString("SENTRY_ENVIRONMENT"),
			Release:     v.GetString("SENTRY_RELEASE"),
			SampleRate:  v.GetFloat64("SENTRY_SAMPLE_RATE"),
			Debug:       v.GetBool("SENTRY_DEBUG"),
		},
		Stripe: StripeConfig{
			SecretKey: v.GetString("STRIPE_SECRET_KEY"),
		},
		VIES: VIESConfig{
			Endpoint: v.GetString("VIES_ENDPOINT"),
			Timeout:  v.GetDuration("VIES_TIMEOUT"),
			Attempts: v.GetInt("VIES_ATTEMPTS"),
			Pause:    v.GetDuration("VIES_PAUSE"),
		},
		TaxRate: v.GetFloat64("TAX_RATE"),
		VAT: vat.Config{
			ManagementEnabled: v.GetBool("VAT_MANAGEMENT_ENABLED"),
			ManualModeEnabled: v.GetBool("VAT_MANUAL_MODE_ENABLED"),
			AutoCheckEnabled:  v.GetBool("VAT_AUTO_CHECK_ENABLED"),
			ExcludedCountry:   strings.ToUpper(strings.TrimSpace(v.GetString("VAT_EXCLUDED_COUNTRY"))),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("METRICS_NAMESPACE", "vatcheck")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_AUDIT_SUBJECT", "vat.registry.inconclusive")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_ENABLED", false) // Disabled by default for development
	v.SetDefault("SENTRY_ENVIRONMENT", "development")
	v.SetDefault("SENTRY_RELEASE", "")
	v.SetDefault("SENTRY_SAMPLE_RATE", 1.0)
	v.SetDefault("SENTRY_DEBUG", false)
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("VIES_ENDPOINT", "https://ec.europa.eu/taxation_customs/vies/services/checkVatService")
	v.SetDefault("VIES_TIMEOUT", 2*time.Second)
	v.SetDefault("VIES_ATTEMPTS", 3)
	v.SetDefault("VIES_PAUSE", time.Second)
	v.SetDefault("TAX_RATE", 0.0)
	v.SetDefault("VAT_MANAGEMENT_ENABLED", false)
	v.SetDefault("VAT_MANUAL_MODE_ENABLED", false)
	v.SetDefault("VAT_AUTO_CHECK_ENABLED", true)
	v.SetDefault("VAT_EXCLUDED_COUNTRY", "")
}

// loadDotEnv loads .env from the working directory or up to two parents.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	dir, _ := os.Getwd()
	for i := 0; i < 2; i++ {
		dir = filepath.Join(dir, "..")
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
	log.Warn().Msg(".env file not found, using environment variables and defaults")
}

func (c *Config) validate() error {
	if !slices.Contains(validEnvs, c.Env) {
		log.Warn().Str("env", c.Env).Msg("Invalid environment. Using default: prod")
		c.Env = "prod"
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		log.Warn().Str("value", c.LogLevel).Msg("Invalid log level. Using default: info")
		c.LogLevel = "info"
	}

	if c.VIES.Timeout <= 0 {
		return fmt.Errorf("VIES_TIMEOUT must be positive, got %s", c.VIES.Timeout)
	}
	if c.VIES.Attempts < 1 {
		return fmt.Errorf("VIES_ATTEMPTS must be at least 1, got %d", c.VIES.Attempts)
	}
	if c.VIES.Pause < 0 {
		return fmt.Errorf("VIES_PAUSE must not be negative, got %s", c.VIES.Pause)
	}

	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("TAX_RATE must be between 0 and 1, got %v", c.TaxRate)
	}

	if c.VAT.ExcludedCountry != "" && !vat.IsCountryCode(c.VAT.ExcludedCountry) {
		return fmt.Errorf("VAT_EXCLUDED_COUNTRY %q is not a country code", c.VAT.ExcludedCountry)
	}

	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		log.Warn().Msg("SENTRY_ENABLED is set without SENTRY_DSN; Sentry stays disabled")
	}

	if c.Env == "prod" && c.Stripe.SecretKey != "" && strings.HasPrefix(c.Stripe.SecretKey, "sk_test_") {
		log.Warn().Msg("Stripe test key configured in production")
	}

	return nil
}
