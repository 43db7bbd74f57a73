package audit

import (
	"context"
	"log/slog"
	"time"
)

// Store persists audit events. Recording is best-effort; callers never fail
// a request because the trail could not be written.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// Recorder writes events to a store and logs failures instead of
// propagating them.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record appends an event, stamping OccurredAt if the caller left it zero.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.store == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := r.store.Append(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"kind", string(event.Kind),
			"subject", event.Subject,
			"error", err,
		)
	}
}
