package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// movieRepository implements repository.MovieRepository for SQLite.
type movieRepository struct {
	db *DB
}

// NewMovieRepository creates a new SQLite movie repository.
func NewMovieRepository(db *DB) repository.MovieRepository {
	return &movieRepository{db: db}
}

const movieColumns = `id, title, description, thumbnail_url, video_url, year, duration, rating, score, category, created_at`

// Create creates a new movie.
func (r *movieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	query := `
		INSERT INTO movies (title, description, thumbnail_url, video_url, year, duration, rating, score, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		movie.Title,
		movie.Description,
		movie.ThumbnailURL,
		movie.VideoURL,
		movie.Year,
		movie.Duration,
		movie.Rating,
		movie.Score,
		movie.Category,
		movie.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	movie.ID = id

	return nil
}

// GetByID retrieves a movie by ID.
func (r *movieRepository) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)

	movie, err := scanMovie(row)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	return movie, nil
}

// List returns all movies.
func (r *movieRepository) List(ctx context.Context) ([]*domain.Movie, error) {
	return r.list(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY created_at DESC`)
}

// ListByCategory returns all movies in a category.
func (r *movieRepository) ListByCategory(ctx context.Context, category string) ([]*domain.Movie, error) {
	return r.list(ctx, `SELECT `+movieColumns+` FROM movies WHERE category = ? ORDER BY created_at DESC`, category)
}

func (r *movieRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []*domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}

	return movies, nil
}

// Update updates an existing movie.
func (r *movieRepository) Update(ctx context.Context, movie *domain.Movie) error {
	query := `
		UPDATE movies
		SET title = ?, description = ?, thumbnail_url = ?, video_url = ?,
		    year = ?, duration = ?, rating = ?, score = ?, category = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		movie.Title,
		movie.Description,
		movie.ThumbnailURL,
		movie.VideoURL,
		movie.Year,
		movie.Duration,
		movie.Rating,
		movie.Score,
		movie.Category,
		movie.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a movie and every activity entry referencing it in one
// transaction, so a log entry never outlives its movie.
func (r *movieRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM activity_logs WHERE movie_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete movie activity: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete movie: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return repository.ErrNotFound
		}

		return nil
	})
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (*domain.Movie, error) {
	movie := &domain.Movie{}
	var createdAt string

	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.ThumbnailURL,
		&movie.VideoURL,
		&movie.Year,
		&movie.Duration,
		&movie.Rating,
		&movie.Score,
		&movie.Category,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	movie.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return movie, nil
}

// Ensure movieRepository implements repository.MovieRepository.
var _ repository.MovieRepository = (*movieRepository)(nil)
