package audit

import (
	"context"

	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/rs/zerolog"
)

// LogSink writes events at warn level, through the request logger when ctx
// carries one.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Name() string { return "log" }

func (s LogSink) Record(ctx context.Context, e Event) error {
	vat.ContextLogger(ctx, s.Logger).Warn().
		Str("event", "vat_registry_inconclusive").
		Str("event_id", e.ID.String()).
		Str("vat_number", e.VATNumber).
		Str("country", e.Country).
		Str("fault", e.Fault).
		Int("attempts", e.Attempts).
		Time("occurred_at", e.OccurredAt).
		Msg("vat number accepted without registry confirmation")
	return nil
}
