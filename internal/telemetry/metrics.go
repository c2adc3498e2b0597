package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// VATMetrics holds Prometheus metrics for VAT-number validation.
// All methods are safe to call on a nil receiver so callers can run without metrics.
type VATMetrics struct {
	// Validation decisions
	Decisions *prometheus.CounterVec

	// Registry (VIES) traffic
	RegistryAttempts     *prometheus.CounterVec
	RegistryLatency      *prometheus.HistogramVec
	RegistryInconclusive prometheus.Counter

	// Audit delivery
	AuditFailures *prometheus.CounterVec

	// Stripe exemption sync
	StripeAPILatency *prometheus.HistogramVec
}

// NewVATMetrics creates and registers the VAT metrics on reg.
// A nil reg registers on the default Prometheus registry.
func NewVATMetrics(namespace string, reg prometheus.Registerer) *VATMetrics {
	if namespace == "" {
		namespace = "vatcheck"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "vat"

	return &VATMetrics{
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decisions_total",
				Help:      "Total VAT-number validation decisions",
			},
			[]string{"outcome", "reason"}, // reason is empty for accepted decisions
		),
		RegistryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_attempts_total",
				Help:      "Total registry requests by result",
			},
			[]string{"result"}, // result: valid, invalid, ambiguous, transport_error
		),
		RegistryLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_request_duration_seconds",
				Help:      "Registry request duration per attempt",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 3, 5},
			},
			[]string{"result"},
		),
		RegistryInconclusive: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_inconclusive_total",
				Help:      "Validations accepted because the registry could not answer",
			},
		),
		AuditFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "audit_failures_total",
				Help:      "Audit events that could not be delivered",
			},
			[]string{"sink"},
		),
		StripeAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stripe_api_duration_seconds",
				Help:      "Stripe API call duration for tax exemption sync",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // operation: update_customer, create_tax_id
		),
	}
}

// ObserveDecision counts a validation decision.
func (m *VATMetrics) ObserveDecision(outcome, reason string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(outcome, reason).Inc()
}

// ObserveRegistryAttempt records one registry request.
func (m *VATMetrics) ObserveRegistryAttempt(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.RegistryAttempts.WithLabelValues(result).Inc()
	m.RegistryLatency.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveInconclusive counts a fail-open acceptance.
func (m *VATMetrics) ObserveInconclusive() {
	if m == nil {
		return
	}
	m.RegistryInconclusive.Inc()
}

// ObserveAuditFailure counts an audit event a sink failed to deliver.
func (m *VATMetrics) ObserveAuditFailure(sink string) {
	if m == nil {
		return
	}
	m.AuditFailures.WithLabelValues(sink).Inc()
}

// ObserveStripeCall records a Stripe API call duration.
func (m *VATMetrics) ObserveStripeCall(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.StripeAPILatency.WithLabelValues(operation).Observe(d.Seconds())
}
