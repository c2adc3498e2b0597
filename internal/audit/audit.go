// Package audit records VAT numbers that were accepted without registry
// confirmation.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event describes one fail-open acceptance.
type Event struct {
	ID         uuid.UUID `json:"id"`
	VATNumber  string    `json:"vat_number"`
	Country    string    `json:"country"`
	Fault      string    `json:"fault"`
	Attempts   int       `json:"attempts"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink delivers audit events.
type Sink interface {
	Name() string
	Record(ctx context.Context, e Event) error
}

// Multi fans an event out to every sink.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

// Record delivers e to all sinks and joins their errors.
func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, &SinkError{Sink: s.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// SinkError wraps a delivery failure with the sink's name.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return "audit sink " + e.Sink + ": " + e.Err.Error()
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// FailureObserver counts delivery failures. *telemetry.VATMetrics satisfies it.
type FailureObserver interface {
	ObserveAuditFailure(sink string)
}

// Recorder adapts a Sink to vat.Auditor. Delivery failures are logged and
// never affect the validation decision.
type Recorder struct {
	sink    Sink
	logger  zerolog.Logger
	metrics FailureObserver
	now     func() time.Time
	newID   func() uuid.UUID
}

var _ vat.Auditor = (*Recorder)(nil)

// NewRecorder creates a Recorder. metrics may be nil.
func NewRecorder(sink Sink, logger zerolog.Logger, metrics FailureObserver) *Recorder {
	return &Recorder{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.New,
	}
}

// RegistryInconclusive implements vat.Auditor.
func (r *Recorder) RegistryInconclusive(ctx context.Context, addr vat.Address, result vat.RegistryResult) {
	e := Event{
		ID:         r.newID(),
		VATNumber:  addr.VATNumber.String(),
		Country:    addr.Country,
		Fault:      result.Fault,
		Attempts:   result.Attempts,
		OccurredAt: r.now().UTC(),
	}

	// Record even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)

	err := r.sink.Record(ctx, e)
	if err == nil {
		return
	}

	vat.ContextLogger(ctx, r.logger).Error().Err(err).
		Str("event_id", e.ID.String()).
		Str("vat_number", e.VATNumber).
		Msg("failed to record vat audit event")

	if r.metrics == nil {
		return
	}
	failed := failedSinks(err)
	if len(failed) == 0 {
		failed = []string{r.sink.Name()}
	}
	for _, name := range failed {
		r.metrics.ObserveAuditFailure(name)
	}
}

func failedSinks(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	var names []string
	for _, e := range joined.Unwrap() {
		var sinkErr *SinkError
		if errors.As(e, &sinkErr) {
			names = append(names, sinkErr.Sink)
		}
	}
	return names
}
