package domain

import (
	"time"
)

// SessionTTL is the fixed lifetime of a session from issuance.
// There is no sliding renewal: a session expires 24 hours after it was
// created regardless of activity.
const SessionTTL = 24 * time.Hour

// Session is a durable server-side login session, keyed by an opaque
// token handed to the client as a cookie. The session only stores the
// user ID; identity fields (including the admin flag) are re-read from
// the user row on every request.
type Session struct {
	// Token is the opaque random identifier (hex, 64 characters).
	Token string

	// UserID references the authenticated user.
	UserID int64

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	// ExpiresAt is CreatedAt + SessionTTL.
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
