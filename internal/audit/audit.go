// Package audit provides the append-only activity trail contract.
//
// Instead of each handler hand-building log rows, callers publish typed
// events through a Recorder; the store-backed recorder persists them.
// Recording is a side channel: failures are logged and swallowed so an
// audit gap never aborts the triggering action.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// Event is one auditable occurrence.
type Event struct {
	// Kind is the event type (login, view, create_movie, ...).
	Kind domain.ActivityKind

	// UserID is the acting user, when attributed.
	UserID *int64

	// MovieID is the related catalog entry, when any.
	MovieID *int64

	// IPAddress is the best-effort client address; empty becomes
	// domain.UnknownIP.
	IPAddress string

	// Details is the event-specific payload.
	Details map[string]string
}

// Recorder accepts audit events. Implementations must not propagate
// persistence failures to the caller.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// storeRecorder persists events through the activity repository.
type storeRecorder struct {
	activity repository.ActivityRepository
	logger   zerolog.Logger
}

// NewRecorder creates the store-backed recorder.
func NewRecorder(activity repository.ActivityRepository, logger zerolog.Logger) Recorder {
	return &storeRecorder{
		activity: activity,
		logger:   logger.With().Str("component", "audit").Logger(),
	}
}

// Record appends the event to the activity trail. Write failures are
// logged locally and never surfaced: the triggering action (login,
// catalog mutation) still completes.
func (r *storeRecorder) Record(ctx context.Context, event Event) {
	entry := &domain.ActivityLog{
		UserID:    event.UserID,
		MovieID:   event.MovieID,
		IPAddress: event.IPAddress,
		Activity:  event.Kind,
		Details:   event.Details,
	}
	if entry.IPAddress == "" {
		entry.IPAddress = domain.UnknownIP
	}

	if err := r.activity.Append(ctx, entry); err != nil {
		r.logger.Error().
			Err(err).
			Str("kind", string(event.Kind)).
			Msg("failed to append audit entry")
	}
}

// NopRecorder discards every event. Useful in tests.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, event Event) {}
