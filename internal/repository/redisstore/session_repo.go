// Package redisstore provides a Redis-backed session store.
// Session expiry is delegated to Redis key TTLs, so no sweep is needed.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/config"
	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/repository"
)

// keyPrefix namespaces session keys in a shared Redis instance.
const keyPrefix = "reelhouse:session:"

// sessionRepository implements repository.SessionRepository on Redis.
type sessionRepository struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewClient creates a Redis client from configuration and verifies the
// connection.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("connected to Redis")
	return client, nil
}

// NewSessionRepository creates a Redis session repository.
func NewSessionRepository(client *redis.Client, logger zerolog.Logger) repository.SessionRepository {
	return &sessionRepository{
		client: client,
		logger: logger.With().Str("store", "redis_session").Logger(),
	}
}

// sessionRecord is the stored JSON shape.
type sessionRecord struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create persists a new session with a TTL matching its expiry.
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(sessionRecord{
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := r.client.Set(ctx, keyPrefix+session.Token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by token.
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Unreadable session data fails closed.
		r.logger.Error().Err(err).Msg("corrupt session record")
		_ = r.client.Del(ctx, keyPrefix+token).Err()
		return nil, repository.ErrNotFound
	}

	return &domain.Session{
		Token:     token,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Delete removes a session by token.
func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys natively.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// Ensure sessionRepository implements repository.SessionRepository.
var _ repository.SessionRepository = (*sessionRepository)(nil)
