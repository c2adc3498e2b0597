// Package settings loads the host's VAT configuration snapshot.
package settings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/go-playground/validator/v10"
)

// Source loads the current VAT configuration. Callers load once per
// validation and pass the snapshot down by value.
type Source interface {
	Load(ctx context.Context) (vat.Config, error)
}

// Store is a Source that can also be written.
type Store interface {
	Source
	Save(ctx context.Context, cfg vat.Config) error
}

// Static is a Source that always returns the same snapshot.
type Static vat.Config

func (s Static) Load(context.Context) (vat.Config, error) {
	return vat.Config(s), nil
}

// Keys used to persist the configuration.
const (
	KeyManagement = "VATNUMBER_MANAGEMENT"
	KeyManualMode = "VATNUMBER_MANUAL_MODE"
	KeyChecking   = "VATNUMBER_CHECKING"
	KeyCountry    = "VATNUMBER_COUNTRY"
)

// Keys returns every persisted key.
func Keys() []string {
	return []string{KeyManagement, KeyManualMode, KeyChecking, KeyCountry}
}

// Encode flattens cfg into key/value pairs. Booleans are stored as "1" or "0".
func Encode(cfg vat.Config) map[string]string {
	return map[string]string{
		KeyManagement: encodeBool(cfg.ManagementEnabled),
		KeyManualMode: encodeBool(cfg.ManualModeEnabled),
		KeyChecking:   encodeBool(cfg.AutoCheckEnabled),
		KeyCountry:    strings.ToUpper(strings.TrimSpace(cfg.ExcludedCountry)),
	}
}

// Decode builds a Config from key/value pairs. Missing keys keep their zero
// value; unknown keys are ignored.
func Decode(values map[string]string) (vat.Config, error) {
	const op = "settings.decode"

	var cfg vat.Config
	var err error
	if cfg.ManagementEnabled, err = decodeBool(values[KeyManagement]); err != nil {
		return vat.Config{}, domain.Errorf(domain.EINVALID, op, "%s: %v", KeyManagement, err)
	}
	if cfg.ManualModeEnabled, err = decodeBool(values[KeyManualMode]); err != nil {
		return vat.Config{}, domain.Errorf(domain.EINVALID, op, "%s: %v", KeyManualMode, err)
	}
	if cfg.AutoCheckEnabled, err = decodeBool(values[KeyChecking]); err != nil {
		return vat.Config{}, domain.Errorf(domain.EINVALID, op, "%s: %v", KeyChecking, err)
	}
	cfg.ExcludedCountry = strings.ToUpper(strings.TrimSpace(values[KeyCountry]))
	return cfg, nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func decodeBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return b, nil
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	vat.RegisterCountryValidation(v)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// Validate checks cfg before it is saved. The excluded country must be empty
// or pass vat.IsCountryCode, the same rule the process configuration uses.
func Validate(cfg vat.Config) error {
	const op = "settings.validate"

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, op, "failed to validate settings")
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case vat.CountryTag:
			fields[fe.Field()] = "Must be a two-letter ISO country code"
		default:
			fields[fe.Field()] = "Invalid value"
		}
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}
