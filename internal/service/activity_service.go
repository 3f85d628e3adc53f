package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// ActivityService reads the audit trail and enriches entries with the
// current state of their user and movie references.
type ActivityService struct {
	activityRepo repository.ActivityRepository
	userRepo     repository.UserRepository
	movieRepo    repository.MovieRepository
	logger       zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(activityRepo repository.ActivityRepository, userRepo repository.UserRepository, movieRepo repository.MovieRepository, logger zerolog.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		userRepo:     userRepo,
		movieRepo:    movieRepo,
		logger:       logger.With().Str("service", "activity").Logger(),
	}
}

// ListAll returns every audit entry, newest first, enriched at read time.
func (s *ActivityService) ListAll(ctx context.Context) ([]*domain.EnrichedActivityLog, error) {
	entries, err := s.activityRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list activity")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return s.enrich(ctx, entries), nil
}

// ListByUser returns one user's audit entries, newest first, enriched at
// read time.
func (s *ActivityService) ListByUser(ctx context.Context, userID int64) ([]*domain.EnrichedActivityLog, error) {
	entries, err := s.activityRepo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list user activity")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return s.enrich(ctx, entries), nil
}

// enrich joins entries with the current user and movie rows. References
// are resolved once per distinct ID within the request. Entries whose
// user was deleted since carry a nil User; movie references cannot
// dangle because catalog deletion cascades to the trail.
func (s *ActivityService) enrich(ctx context.Context, entries []*domain.ActivityLog) []*domain.EnrichedActivityLog {
	users := make(map[int64]*domain.PublicUser)
	movies := make(map[int64]*domain.MovieRef)

	enriched := make([]*domain.EnrichedActivityLog, 0, len(entries))
	for _, entry := range entries {
		e := &domain.EnrichedActivityLog{ActivityLog: *entry}

		if entry.UserID != nil {
			pub, seen := users[*entry.UserID]
			if !seen {
				user, err := s.userRepo.GetByID(ctx, *entry.UserID)
				if err == nil {
					p := user.Public()
					pub = &p
				}
				users[*entry.UserID] = pub
			}
			e.User = pub
		}

		if entry.MovieID != nil {
			ref, seen := movies[*entry.MovieID]
			if !seen {
				movie, err := s.movieRepo.GetByID(ctx, *entry.MovieID)
				if err == nil {
					r := movie.Ref()
					ref = &r
				}
				movies[*entry.MovieID] = ref
			}
			e.Movie = ref
		}

		enriched = append(enriched, e)
	}
	return enriched
}
