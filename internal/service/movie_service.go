package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// MovieService handles catalog operations.
type MovieService struct {
	movieRepo repository.MovieRepository
	recorder  audit.Recorder
	logger    zerolog.Logger
}

// NewMovieService creates a new MovieService.
func NewMovieService(movieRepo repository.MovieRepository, recorder audit.Recorder, logger zerolog.Logger) *MovieService {
	return &MovieService{
		movieRepo: movieRepo,
		recorder:  recorder,
		logger:    logger.With().Str("service", "movie").Logger(),
	}
}

// List returns all movies.
func (s *MovieService) List(ctx context.Context) ([]*domain.Movie, error) {
	movies, err := s.movieRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list movies")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return movies, nil
}

// ListByCategory returns all movies in a category.
func (s *MovieService) ListByCategory(ctx context.Context, category string) ([]*domain.Movie, error) {
	movies, err := s.movieRepo.ListByCategory(ctx, category)
	if err != nil {
		s.logger.Error().Err(err).Str("category", category).Msg("failed to list movies by category")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return movies, nil
}

// Get retrieves a movie. When the request is attributed to a user, a
// view event is recorded.
func (s *MovieService) Get(ctx context.Context, id int64, viewer Actor) (*domain.Movie, error) {
	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		s.logger.Error().Err(err).Int64("movie_id", id).Msg("failed to get movie")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if viewer.UserID != nil {
		s.recorder.Record(ctx, audit.Event{
			Kind:      domain.ActivityView,
			UserID:    viewer.UserID,
			MovieID:   &movie.ID,
			IPAddress: viewer.IPAddress,
			Details:   map[string]string{"title": movie.Title},
		})
	}

	return movie, nil
}

// CreateMovieInput contains the data needed to create a movie.
type CreateMovieInput struct {
	Title        string
	Description  string
	ThumbnailURL string
	VideoURL     string
	Year         int
	Duration     int
	Rating       string
	Score        int
	Category     string
}

// Create adds a movie to the catalog.
func (s *MovieService) Create(ctx context.Context, input CreateMovieInput, actor Actor) (*domain.Movie, error) {
	if err := validateMovieInput(input); err != nil {
		return nil, err
	}

	movie := &domain.Movie{
		Title:        input.Title,
		Description:  input.Description,
		ThumbnailURL: input.ThumbnailURL,
		VideoURL:     input.VideoURL,
		Year:         input.Year,
		Duration:     input.Duration,
		Rating:       input.Rating,
		Score:        input.Score,
		Category:     input.Category,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.movieRepo.Create(ctx, movie); err != nil {
		s.logger.Error().Err(err).Str("title", input.Title).Msg("failed to create movie")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:      domain.ActivityCreateMovie,
		UserID:    actor.UserID,
		MovieID:   &movie.ID,
		IPAddress: actor.IPAddress,
		Details:   map[string]string{"title": movie.Title},
	})

	s.logger.Info().
		Int64("movie_id", movie.ID).
		Str("title", movie.Title).
		Str("category", movie.Category).
		Msg("movie created")

	return movie, nil
}

// Update applies a partial update to a movie.
func (s *MovieService) Update(ctx context.Context, id int64, update domain.MovieUpdate, actor Actor) (*domain.Movie, error) {
	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	update.Apply(movie)

	if err := s.movieRepo.Update(ctx, movie); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		s.logger.Error().Err(err).Int64("movie_id", id).Msg("failed to update movie")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:      domain.ActivityUpdateMovie,
		UserID:    actor.UserID,
		MovieID:   &movie.ID,
		IPAddress: actor.IPAddress,
		Details:   map[string]string{"title": movie.Title},
	})

	s.logger.Info().Int64("movie_id", movie.ID).Msg("movie updated")
	return movie, nil
}

// Delete removes a movie from the catalog. Its activity entries go with
// it in the same transaction, so the delete event carries no movie
// reference (only the title detail).
func (s *MovieService) Delete(ctx context.Context, id int64, actor Actor) error {
	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMovieNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.movieRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMovieNotFound
		}
		s.logger.Error().Err(err).Int64("movie_id", id).Msg("failed to delete movie")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:      domain.ActivityDeleteMovie,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		Details:   map[string]string{"title": movie.Title},
	})

	s.logger.Info().Int64("movie_id", id).Str("title", movie.Title).Msg("movie deleted")
	return nil
}

func validateMovieInput(input CreateMovieInput) error {
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMovie)
	}
	if input.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidMovie)
	}
	if input.Year < 1888 || input.Year > time.Now().Year()+1 {
		return fmt.Errorf("%w: implausible year", ErrInvalidMovie)
	}
	if input.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidMovie)
	}
	if input.Score < 0 || input.Score > 100 {
		return fmt.Errorf("%w: score must be 0-100", ErrInvalidMovie)
	}
	return nil
}
