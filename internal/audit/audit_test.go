package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/domain"
)

// failingActivityRepo always fails Append.
type failingActivityRepo struct {
	stubActivityRepo
}

func (failingActivityRepo) Append(ctx context.Context, entry *domain.ActivityLog) error {
	return errors.New("disk full")
}

// capturingActivityRepo keeps appended entries.
type capturingActivityRepo struct {
	stubActivityRepo
	entries []*domain.ActivityLog
}

func (r *capturingActivityRepo) Append(ctx context.Context, entry *domain.ActivityLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

type stubActivityRepo struct{}

func (stubActivityRepo) Append(ctx context.Context, entry *domain.ActivityLog) error { return nil }
func (stubActivityRepo) ListAll(ctx context.Context) ([]*domain.ActivityLog, error) {
	return nil, nil
}
func (stubActivityRepo) ListByUserID(ctx context.Context, userID int64) ([]*domain.ActivityLog, error) {
	return nil, nil
}
func (stubActivityRepo) CountByMovieID(ctx context.Context, movieID int64) (int64, error) {
	return 0, nil
}

func TestRecorder_SwallowsAppendFailures(t *testing.T) {
	recorder := NewRecorder(failingActivityRepo{}, zerolog.Nop())

	// Must not panic or surface the error in any way.
	recorder.Record(context.Background(), Event{
		Kind:      domain.ActivityLogin,
		IPAddress: "10.0.0.1",
	})
}

func TestRecorder_FillsUnknownIP(t *testing.T) {
	repo := &capturingActivityRepo{}
	recorder := NewRecorder(repo, zerolog.Nop())

	userID := int64(1)
	recorder.Record(context.Background(), Event{
		Kind:   domain.ActivityLogin,
		UserID: &userID,
	})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IPAddress != domain.UnknownIP {
		t.Errorf("expected IP %q, got %q", domain.UnknownIP, repo.entries[0].IPAddress)
	}

	recorder.Record(context.Background(), Event{
		Kind:      domain.ActivityLogin,
		IPAddress: "10.0.0.1",
	})
	if repo.entries[1].IPAddress != "10.0.0.1" {
		t.Errorf("expected provided IP kept, got %q", repo.entries[1].IPAddress)
	}
}
