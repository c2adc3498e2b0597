package telemetry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVATMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewVATMetrics("test", reg)

	m.ObserveDecision("rejected", "not_registered")
	m.ObserveDecision("accepted", "")
	m.ObserveDecision("accepted", "")
	m.ObserveRegistryAttempt("ambiguous", 150*time.Millisecond)
	m.ObserveInconclusive()
	m.ObserveAuditFailure("nats")
	m.ObserveStripeCall("update_customer", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("accepted", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("rejected", "not_registered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryAttempts.WithLabelValues("ambiguous")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryInconclusive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures.WithLabelValues("nats")))

	count, err := testutil.GatherAndCount(reg, "test_vat_registry_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVATMetrics_NilSafe(t *testing.T) {
	var m *telemetry.VATMetrics

	assert.NotPanics(t, func() {
		m.ObserveDecision("accepted", "")
		m.ObserveRegistryAttempt("valid", time.Millisecond)
		m.ObserveInconclusive()
		m.ObserveAuditFailure("log")
		m.ObserveStripeCall("create_tax_id", time.Millisecond)
	})
}

func TestSentry_DisabledIsNoop(t *testing.T) {
	cleanup, err := telemetry.InitSentry(telemetry.SentryConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, telemetry.IsEnabled())
	assert.NotPanics(t, func() {
		telemetry.CaptureError(context.Background(), errors.New("boom"), nil)
		telemetry.CaptureMessage(context.Background(), "hello", sentry.LevelWarning, nil, nil)
	})
}

func TestSentry_MissingDSNDisables(t *testing.T) {
	_, err := telemetry.InitSentry(telemetry.SentryConfig{Enabled: true}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, telemetry.IsEnabled())
}

func TestSentry_CaptureMessage(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	cleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		Enabled:     true,
		DSN:         "https://public@sentry.example.com/1",
		Environment: "test",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, event)
			return nil
		},
	}, zerolog.Nop())
	require.NoError(t, err)
	defer func() {
		cleanup()
		_, _ = telemetry.InitSentry(telemetry.SentryConfig{}, zerolog.Nop())
	}()

	telemetry.CaptureMessage(context.Background(), "registry down", sentry.LevelWarning,
		map[string]string{"vat.country": "DE"},
		map[string]any{"attempts": 3},
	)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "registry down", events[0].Message)
	assert.Equal(t, sentry.LevelWarning, events[0].Level)
	assert.Equal(t, "DE", events[0].Tags["vat.country"])
	assert.Equal(t, 3, events[0].Extra["attempts"])
}
