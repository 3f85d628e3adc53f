// Package domain contains the core business entities for Reelhouse.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the streaming catalog.
package domain

import (
	"time"
)

// User represents a registered account in the system.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique username for login and display.
	// Lookups are case-sensitive exact matches.
	Username string `json:"username"`

	// Email is the unique email address for the user.
	Email string `json:"email"`

	// PasswordSecret is the stored credential. Either an scrypt pair in
	// "<hex key>.<hex salt>" form, or a legacy plaintext value carried
	// over from before hashing was introduced (no "." separator).
	// Never exposed in API responses.
	PasswordSecret string `json:"-"`

	// IsAdmin indicates whether the user has administrative privileges.
	// Admins can manage the catalog, other users, and the activity log.
	IsAdmin bool `json:"isAdmin"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default values.
func NewUser(username, email, passwordSecret string) *User {
	now := time.Now().UTC()
	return &User{
		Username:       username,
		Email:          email,
		PasswordSecret: passwordSecret,
		IsAdmin:        false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// PublicUser is the subset of user fields safe to return to clients.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Public returns the API-safe view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
	}
}
