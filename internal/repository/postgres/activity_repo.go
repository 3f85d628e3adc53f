package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// activityRepository implements repository.ActivityRepository for PostgreSQL.
type activityRepository struct {
	db *DB
}

// NewActivityRepository creates a new PostgreSQL activity repository.
func NewActivityRepository(db *DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `id, user_id, ip_address, activity, movie_id, timestamp, details`

// Append inserts one entry, stamping the server-side timestamp.
func (r *activityRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	entry.Timestamp = time.Now().UTC()

	var details []byte
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
		details = data
	}

	query := `
		INSERT INTO activity_logs (user_id, ip_address, activity, movie_id, timestamp, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		entry.UserID,
		entry.IPAddress,
		string(entry.Activity),
		entry.MovieID,
		entry.Timestamp,
		details,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	return nil
}

// ListAll returns all entries ordered by timestamp descending.
func (r *activityRepository) ListAll(ctx context.Context) ([]*domain.ActivityLog, error) {
	return r.list(ctx, `SELECT `+activityColumns+` FROM activity_logs ORDER BY timestamp DESC, id DESC`)
}

// ListByUserID returns a user's entries ordered by timestamp descending.
func (r *activityRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.ActivityLog, error) {
	return r.list(ctx, `SELECT `+activityColumns+` FROM activity_logs WHERE user_id = $1 ORDER BY timestamp DESC, id DESC`, userID)
}

// CountByMovieID returns the number of entries referencing a movie.
func (r *activityRepository) CountByMovieID(ctx context.Context, movieID int64) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs WHERE movie_id = $1`, movieID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return count, nil
}

func (r *activityRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.ActivityLog, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActivityLog
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}

func scanActivity(rows pgx.Rows) (*domain.ActivityLog, error) {
	entry := &domain.ActivityLog{}
	var activity string
	var details []byte

	err := rows.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.IPAddress,
		&activity,
		&entry.MovieID,
		&entry.Timestamp,
		&details,
	)
	if err != nil {
		return nil, err
	}

	entry.Activity = domain.ActivityKind(activity)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &entry.Details); err != nil {
			entry.Details = map[string]string{"_raw": string(details)}
		}
	}

	return entry, nil
}

// Ensure activityRepository implements repository.ActivityRepository.
var _ repository.ActivityRepository = (*activityRepository)(nil)
