package domain

import "errors"

// Domain errors shared across layers.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a username or email conflict.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrMovieNotFound indicates the requested movie does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrSessionNotFound indicates the session token is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session is past its TTL.
	ErrSessionExpired = errors.New("session expired")
)
