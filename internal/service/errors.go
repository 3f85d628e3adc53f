// Package service provides business logic services for Reelhouse.
package service

import "errors"

// Common service errors.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("invalid username: must be at least 3 characters")
	ErrInvalidPassword    = errors.New("invalid password: must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email format")

	// Session errors
	ErrSessionInvalid = errors.New("session invalid or expired")

	// Movie errors
	ErrMovieNotFound = errors.New("movie not found")
	ErrInvalidMovie  = errors.New("invalid movie data")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
