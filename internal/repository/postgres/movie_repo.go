package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// movieRepository implements repository.MovieRepository for PostgreSQL.
type movieRepository struct {
	db *DB
}

// NewMovieRepository creates a new PostgreSQL movie repository.
func NewMovieRepository(db *DB) repository.MovieRepository {
	return &movieRepository{db: db}
}

const movieColumns = `id, title, description, thumbnail_url, video_url, year, duration, rating, score, category, created_at`

// Create creates a new movie.
func (r *movieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	query := `
		INSERT INTO movies (title, description, thumbnail_url, video_url, year, duration, rating, score, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		movie.Title,
		movie.Description,
		movie.ThumbnailURL,
		movie.VideoURL,
		movie.Year,
		movie.Duration,
		movie.Rating,
		movie.Score,
		movie.Category,
		movie.CreatedAt,
	).Scan(&movie.ID)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	return nil
}

// GetByID retrieves a movie by ID.
func (r *movieRepository) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	movie := &domain.Movie{}

	err := r.db.Pool.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id).Scan(
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
		&movie.CreatedAt,
	)
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
	return r.list(ctx, `SELECT `+movieColumns+` FROM movies WHERE category = $1 ORDER BY created_at DESC`, category)
}

func (r *movieRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Movie, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []*domain.Movie
	for rows.Next() {
		movie := &domain.Movie{}
		err := rows.Scan(
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
			&movie.CreatedAt,
		)
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
		SET title = $1, description = $2, thumbnail_url = $3, video_url = $4,
		    year = $5, duration = $6, rating = $7, score = $8, category = $9
		WHERE id = $10
	`

	tag, err := r.db.Pool.Exec(ctx, query,
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

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a movie and every activity entry referencing it in one
// transaction, so a log entry never outlives its movie.
func (r *movieRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM activity_logs WHERE movie_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete movie activity: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete movie: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}

		return nil
	})
}

// Ensure movieRepository implements repository.MovieRepository.
var _ repository.MovieRepository = (*movieRepository)(nil)
