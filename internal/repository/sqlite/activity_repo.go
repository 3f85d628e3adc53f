package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// activityRepository implements repository.ActivityRepository for SQLite.
type activityRepository struct {
	db *DB
}

// NewActivityRepository creates a new SQLite activity repository.
func NewActivityRepository(db *DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `id, user_id, ip_address, activity, movie_id, timestamp, details`

// Append inserts one entry. The timestamp is stamped server-side at
// insertion; entry content is never validated beyond schema shape.
func (r *activityRepository) Append(ctx context.Context, entry *domain.ActivityLog) error {
	entry.Timestamp = time.Now().UTC()

	var details interface{}
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
		details = string(data)
	}

	query := `
		INSERT INTO activity_logs (user_id, ip_address, activity, movie_id, timestamp, details)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID,
		entry.IPAddress,
		string(entry.Activity),
		entry.MovieID,
		entry.Timestamp.Format(time.RFC3339Nano),
		details,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	entry.ID = id

	return nil
}

// ListAll returns all entries ordered by timestamp descending.
func (r *activityRepository) ListAll(ctx context.Context) ([]*domain.ActivityLog, error) {
	return r.list(ctx, `SELECT `+activityColumns+` FROM activity_logs ORDER BY timestamp DESC, id DESC`)
}

// ListByUserID returns a user's entries ordered by timestamp descending.
func (r *activityRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.ActivityLog, error) {
	return r.list(ctx, `SELECT `+activityColumns+` FROM activity_logs WHERE user_id = ? ORDER BY timestamp DESC, id DESC`, userID)
}

// CountByMovieID returns the number of entries referencing a movie.
func (r *activityRepository) CountByMovieID(ctx context.Context, movieID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_logs WHERE movie_id = ?`, movieID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return count, nil
}

func (r *activityRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

func scanActivity(rows *sql.Rows) (*domain.ActivityLog, error) {
	entry := &domain.ActivityLog{}
	var userID, movieID sql.NullInt64
	var activity, timestamp string
	var details sql.NullString

	err := rows.Scan(
		&entry.ID,
		&userID,
		&entry.IPAddress,
		&activity,
		&movieID,
		&timestamp,
		&details,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		entry.UserID = &userID.Int64
	}
	if movieID.Valid {
		entry.MovieID = &movieID.Int64
	}
	entry.Activity = domain.ActivityKind(activity)
	entry.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
			// Tolerate unreadable payloads: the entry itself still counts.
			entry.Details = map[string]string{"_raw": details.String}
		}
	}

	return entry, nil
}

// Ensure activityRepository implements repository.ActivityRepository.
var _ repository.ActivityRepository = (*activityRepository)(nil)
