package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/pkg/crypto"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// Actor identifies the request context an operation runs under:
// who (if authenticated), from where, with what client.
type Actor struct {
	UserID    *int64
	IPAddress string
	UserAgent string
}

// AuthService handles credential verification and session lifecycle.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	recorder    audit.Recorder
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, recorder audit.Recorder, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		recorder:    recorder,
		logger:      logger.With().Str("service", "auth").Logger(),
	}
}

// LoginInput contains the data for a login attempt.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// Login verifies credentials and establishes a session. Failures are
// reported uniformly as ErrInvalidCredentials: the caller never learns
// whether the username existed.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.Session, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error().Err(err).Msg("failed to look up user during login")
		}
		s.logger.Debug().Str("username", input.Username).Msg("user not found during login")
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := crypto.VerifyPassword(input.Password, user.PasswordSecret)
	if err != nil {
		// Corrupt stored secret: fail closed behind the generic error.
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("malformed stored secret")
		return nil, nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.Debug().Str("username", input.Username).Msg("invalid password during login")
		return nil, nil, ErrInvalidCredentials
	}

	// Lazy migration: a legacy plaintext secret is upgraded to the
	// scrypt format on its first successful login.
	if crypto.NeedsRehash(user.PasswordSecret) {
		if secret, hashErr := crypto.HashPassword(input.Password); hashErr == nil {
			if updErr := s.userRepo.UpdateSecret(ctx, user.ID, secret); updErr != nil {
				s.logger.Error().Err(updErr).Int64("user_id", user.ID).Msg("failed to upgrade legacy secret")
			} else {
				user.PasswordSecret = secret
				s.logger.Info().Int64("user_id", user.ID).Msg("upgraded legacy plaintext secret")
			}
		}
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:      domain.ActivityLogin,
		UserID:    &user.ID,
		IPAddress: input.IPAddress,
		Details:   map[string]string{"userAgent": input.UserAgent},
	})

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return user, session, nil
}

// RegisterInput contains the data for a registration.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// Register creates a new account and immediately establishes a session,
// exactly like a successful login. Fails without side effects when the
// username (case-sensitive) or email is already taken.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Session, error) {
	if err := validateRegistration(input); err != nil {
		return nil, nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username existence")
		return nil, nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, nil, ErrUserAlreadyExists
	}

	taken, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check email existence")
		return nil, nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if taken {
		return nil, nil, ErrEmailAlreadyExists
	}

	secret, err := crypto.HashPassword(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Username, input.Email, secret)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, nil, ErrUserAlreadyExists
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:      domain.ActivityRegistration,
		UserID:    &user.ID,
		IPAddress: input.IPAddress,
		Details:   map[string]string{"userAgent": input.UserAgent},
	})

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user registered")

	return user, session, nil
}

// Logout invalidates a session and records the event.
func (s *AuthService) Logout(ctx context.Context, token string, actor Actor) error {
	if err := s.sessionRepo.Delete(ctx, token); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete session")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.recorder.Record(ctx, audit.Event{
		Kind:      domain.ActivityLogout,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
		Details:   map[string]string{"userAgent": actor.UserAgent},
	})

	return nil
}

// ResolveSession maps a session token to its current user. The user row
// (including the admin flag) is re-read on every call, so role changes
// take effect on the very next request without re-login. Fails closed
// when the session is unknown, expired, or its user no longer exists.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		s.logger.Error().Err(err).Msg("failed to look up session")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if session.Expired(time.Now().UTC()) {
		_ = s.sessionRepo.Delete(ctx, token)
		return nil, ErrSessionInvalid
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// User deleted since login: the session is dead.
			_ = s.sessionRepo.Delete(ctx, token)
			return nil, ErrSessionInvalid
		}
		s.logger.Error().Err(err).Int64("user_id", session.UserID).Msg("failed to resolve session user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return user, nil
}

// SweepExpiredSessions removes sessions past their TTL. Invoked
// periodically by the server; the Redis store makes this a no-op.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) {
	deleted, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sweep expired sessions")
		return
	}
	if deleted > 0 {
		s.logger.Debug().Int64("deleted", deleted).Msg("swept expired sessions")
	}
}

func (s *AuthService) createSession(ctx context.Context, userID int64) (*domain.Session, error) {
	token, err := crypto.GenerateToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate session token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to persist session")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return session, nil
}

func validateRegistration(input RegisterInput) error {
	if len(input.Username) < 3 || len(input.Username) > 255 {
		return ErrInvalidUsername
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(input.Password) < 6 {
		return ErrInvalidPassword
	}
	return nil
}
