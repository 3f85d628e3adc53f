package domain

import (
	"time"
)

// ActivityKind identifies the closed set of audited event types.
type ActivityKind string

// Activity kinds recorded by the audit trail.
const (
	ActivityLogin        ActivityKind = "login"
	ActivityLogout       ActivityKind = "logout"
	ActivityRegistration ActivityKind = "registration"
	ActivityView         ActivityKind = "view"
	ActivityCreateMovie  ActivityKind = "create_movie"
	ActivityUpdateMovie  ActivityKind = "update_movie"
	ActivityDeleteMovie  ActivityKind = "delete_movie"
	ActivityCreateUser   ActivityKind = "create_user"
	ActivityRequest      ActivityKind = "request"
)

// UnknownIP is the sentinel origin address recorded when the client
// address cannot be determined.
const UnknownIP = "Unknown"

// ActivityLog is one append-only audit trail entry. Entries are never
// mutated after insertion.
type ActivityLog struct {
	// ID is the unique identifier for the entry (auto-generated).
	ID int64 `json:"id"`

	// UserID references the acting user. Nil for unattributed events,
	// and nulled out when the referenced user is later deleted.
	UserID *int64 `json:"userId"`

	// IPAddress is the best-effort origin network address, or UnknownIP.
	IPAddress string `json:"ipAddress"`

	// Activity is the event kind.
	Activity ActivityKind `json:"activity"`

	// MovieID references the related catalog entry, if any. Entries
	// referencing a movie are deleted together with the movie.
	MovieID *int64 `json:"movieId"`

	// Timestamp is set server-side at insertion.
	Timestamp time.Time `json:"timestamp"`

	// Details is the event-specific key/value payload (user-agent,
	// path, method, titles, ...).
	Details map[string]string `json:"details"`
}

// EnrichedActivityLog is an activity entry joined at read time with the
// current public state of its user and movie references. Deleted users
// enrich to a nil User.
type EnrichedActivityLog struct {
	ActivityLog
	User  *PublicUser `json:"user"`
	Movie *MovieRef   `json:"movie"`
}
