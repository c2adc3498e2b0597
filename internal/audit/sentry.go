package audit

import (
	"context"

	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/getsentry/sentry-go"
)

// SentrySink reports events as warning-level Sentry messages. It does
// nothing when Sentry is disabled.
type SentrySink struct{}

func (SentrySink) Name() string { return "sentry" }

func (SentrySink) Record(ctx context.Context, e Event) error {
	telemetry.CaptureMessage(ctx, "VAT number accepted without registry confirmation", sentry.LevelWarning,
		map[string]string{
			"vat.country": e.Country,
			"vat.fault":   e.Fault,
		},
		map[string]any{
			"event_id":   e.ID.String(),
			"vat_number": e.VATNumber,
			"attempts":   e.Attempts,
		},
	)
	return nil
}
