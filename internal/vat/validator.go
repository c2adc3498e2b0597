package vat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config is the host-level VAT settings snapshot. It is read once per
// validation and passed by value.
type Config struct {
	ManagementEnabled bool   `json:"management_enabled"`
	ManualModeEnabled bool   `json:"manual_mode_enabled"`
	AutoCheckEnabled  bool   `json:"auto_check_enabled"`
	ExcludedCountry   string `json:"excluded_country" validate:"omitempty,vat_country"`
}

// Address is the part of a customer address the validator looks at.
type Address struct {
	Country            string
	Company            string
	VATNumber          Number
	ExemptionRequested bool
}

// Outcome of a validation.
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
)

func (o Outcome) String() string {
	if o == Rejected {
		return "rejected"
	}
	return "accepted"
}

// Decision is the result of Validator.Validate.
type Decision struct {
	Outcome Outcome
	Reason  Reason // empty when accepted

	// Number is the value the caller should persist. It differs from the
	// input only when an exemption request was turned into ManualExemption.
	Number Number

	// Registry is set when the registry was consulted.
	Registry *RegistryResult
}

// Accepted reports whether the address may be saved.
func (d Decision) Accepted() bool {
	return d.Outcome == Accepted
}

// Err returns the typed rejection error, or nil for accepted decisions.
func (d Decision) Err() error {
	if d.Outcome != Rejected {
		return nil
	}
	return ErrorForReason(d.Reason)
}

// Auditor is notified when a number was accepted only because the registry
// could not answer.
type Auditor interface {
	RegistryInconclusive(ctx context.Context, addr Address, result RegistryResult)
}

// Metrics observes validation decisions. *telemetry.VATMetrics satisfies it.
type Metrics interface {
	ObserveDecision(outcome, reason string)
	ObserveInconclusive()
}

// Validator decides whether a VAT number attached to an address is acceptable.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	registry RegistryClient
	auditor  Auditor
	metrics  Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithAuditor sets the auditor notified on fail-open acceptances.
func WithAuditor(a Auditor) Option {
	return func(v *Validator) { v.auditor = a }
}

// WithLogger sets the validator's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithMetrics sets the decision metrics.
func WithMetrics(m Metrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// NewValidator creates a Validator. A nil registry makes every registry
// lookup inconclusive. Without WithAuditor, inconclusive lookups are written
// to the logger at warn level.
func NewValidator(registry RegistryClient, opts ...Option) *Validator {
	v := &Validator{
		registry: registry,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.auditor == nil {
		v.auditor = logAuditor{logger: v.logger}
	}
	return v
}

// Validate runs the decision sequence for addr under cfg. Checks are applied
// in order and the first one that decides wins.
func (v *Validator) Validate(ctx context.Context, addr Address, cfg Config) Decision {
	d := v.decide(ctx, addr, cfg)
	v.observe(ctx, addr, d)
	return d
}

func (v *Validator) decide(ctx context.Context, addr Address, cfg Config) Decision {
	number := addr.VATNumber

	if number.IsEmpty() && addr.ExemptionRequested {
		return accept(ManualExemption())
	}
	if !cfg.ManagementEnabled || cfg.ManualModeEnabled {
		return accept(number)
	}
	if number.IsEmpty() || number.IsManualExemption() {
		return accept(number)
	}
	if cfg.ExcludedCountry != "" && normalizeCode(addr.Country) == normalizeCode(cfg.ExcludedCountry) {
		return accept(number)
	}

	if strings.TrimSpace(addr.Company) == "" {
		return reject(number, ReasonMissingCompany)
	}
	if !isKnownPrefix(number.Prefix()) {
		return reject(number, ReasonInvalidPrefix)
	}
	if prefix, ok := PrefixFor(addr.Country); !ok || prefix != number.Prefix() {
		return reject(number, ReasonCountryMismatch)
	}

	if !cfg.AutoCheckEnabled {
		return accept(number)
	}

	result := v.check(ctx, number)
	d := Decision{Number: number, Registry: &result}
	switch result.Status {
	case RegistryValid:
		d.Outcome = Accepted
	case RegistryInvalid:
		d.Outcome = Rejected
		d.Reason = ReasonNotRegistered
	default:
		d.Outcome = Accepted
		if v.metrics != nil {
			v.metrics.ObserveInconclusive()
		}
		v.auditor.RegistryInconclusive(ctx, addr, result)
	}
	return d
}

func (v *Validator) check(ctx context.Context, number Number) RegistryResult {
	if v.registry == nil {
		return RegistryResult{Status: RegistryInconclusive, Fault: "no registry configured"}
	}
	if err := ctx.Err(); err != nil {
		return RegistryResult{Status: RegistryInconclusive, Fault: err.Error()}
	}
	return v.registry.Check(ctx, number.Prefix(), number.Remainder())
}

func (v *Validator) observe(ctx context.Context, addr Address, d Decision) {
	if v.metrics != nil {
		v.metrics.ObserveDecision(d.Outcome.String(), string(d.Reason))
	}

	logger := ContextLogger(ctx, v.logger)
	event := logger.Debug()
	if d.Outcome == Rejected {
		event = logger.Info()
	}
	event.
		Str("country", addr.Country).
		Str("vat_number", d.Number.String()).
		Str("outcome", d.Outcome.String()).
		Str("reason", string(d.Reason)).
		Msg("vat number validated")
}

// ContextLogger returns the request-scoped logger carried by ctx, or fallback
// when ctx has none.
func ContextLogger(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}

func accept(n Number) Decision {
	return Decision{Outcome: Accepted, Number: n}
}

func reject(n Number, r Reason) Decision {
	return Decision{Outcome: Rejected, Reason: r, Number: n}
}

// logAuditor is the default Auditor.
type logAuditor struct {
	logger zerolog.Logger
}

func (a logAuditor) RegistryInconclusive(ctx context.Context, addr Address, result RegistryResult) {
	ContextLogger(ctx, a.logger).Warn().
		Str("vat_number", addr.VATNumber.String()).
		Str("country", addr.Country).
		Str("fault", result.Fault).
		Int("attempts", result.Attempts).
		Msg("vat registry inconclusive, number accepted without verification")
}
