// Package repository provides the data access layer for Reelhouse.
// This file contains the shared bundle type the driver packages
// (sqlite, postgres) populate based on configuration.
package repository

import (
	"context"
)

// Repositories holds all repository instances for one database backend.
// The session repository may be swapped for the Redis store after
// construction when session.store is "redis".
type Repositories struct {
	User     UserRepository
	Movie    MovieRepository
	Activity ActivityRepository
	Session  SessionRepository
}

// DatabaseHealth is an interface for database health checks.
// Satisfied by both driver packages' DB wrappers.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
