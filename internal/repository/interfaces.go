// Package repository defines data access interfaces for Reelhouse.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, in-memory for testing) while
// keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/reelhouse/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username (case-sensitive).
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// UpdateSecret replaces the stored credential secret for a user.
	// Used for the lazy plaintext-to-scrypt migration on login.
	UpdateSecret(ctx context.Context, id int64, secret string) error

	// Delete deletes a user by ID. Activity entries referencing the
	// user keep their rows with a nulled user reference.
	Delete(ctx context.Context, id int64) error

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Movie Repository
// =============================================================================

// MovieRepository defines the interface for catalog data access.
type MovieRepository interface {
	// Create creates a new movie.
	Create(ctx context.Context, movie *domain.Movie) error

	// GetByID retrieves a movie by ID.
	GetByID(ctx context.Context, id int64) (*domain.Movie, error)

	// List returns all movies.
	List(ctx context.Context) ([]*domain.Movie, error)

	// ListByCategory returns all movies in a category.
	ListByCategory(ctx context.Context, category string) ([]*domain.Movie, error)

	// Update updates an existing movie.
	Update(ctx context.Context, movie *domain.Movie) error

	// Delete deletes a movie together with every activity entry that
	// references it, in a single transaction.
	Delete(ctx context.Context, id int64) error
}

// =============================================================================
// Activity Repository
// =============================================================================

// ActivityRepository defines the interface for the append-only audit trail.
// Entries are inserted and read, never updated; the only deletion path is
// the movie cascade handled inside MovieRepository.Delete.
type ActivityRepository interface {
	// Append inserts one entry, stamping the server-side timestamp.
	Append(ctx context.Context, entry *domain.ActivityLog) error

	// ListAll returns all entries ordered by timestamp descending.
	ListAll(ctx context.Context) ([]*domain.ActivityLog, error)

	// ListByUserID returns a user's entries ordered by timestamp descending.
	ListByUserID(ctx context.Context, userID int64) ([]*domain.ActivityLog, error)

	// CountByMovieID returns the number of entries referencing a movie.
	CountByMovieID(ctx context.Context, movieID int64) (int64, error)
}

// =============================================================================
// Session Repository
// =============================================================================

// SessionRepository defines the interface for the durable session store.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *domain.Session) error

	// GetByToken retrieves a session by its opaque token.
	// Returns ErrNotFound for unknown or lazily-expired tokens.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Delete removes a session by token.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes sessions past their expiry. SQL stores call
	// this lazily; the Redis store relies on native key expiry and
	// implements it as a no-op.
	DeleteExpired(ctx context.Context) (int64, error)
}
