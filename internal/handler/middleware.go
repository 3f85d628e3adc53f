package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/pkg/crypto"
	"github.com/prn-tf/reelhouse/internal/service"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "sessionToken"
)

// userFromContext returns the authenticated user, if any.
func userFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// tokenFromContext returns the verified session token, if any.
func tokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

// actorFromRequest builds the audit actor for the request.
func actorFromRequest(r *http.Request) service.Actor {
	actor := service.Actor{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if user, ok := userFromContext(r.Context()); ok {
		actor.UserID = &user.ID
	}
	return actor
}

// clientIP extracts the best-effort client address: the first
// X-Forwarded-For hop when present, otherwise the connection peer.
// Returns domain.UnknownIP when neither yields an address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		if ip = strings.TrimSpace(ip); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return domain.UnknownIP
}

// AuthMiddleware resolves the session cookie into a user on every
// request. A missing cookie, a bad signature, or a dead session leaves
// the request anonymous; the route-level guards decide whether that is
// acceptable. The cookie signature check happens before any store
// lookup, so forged cookies cost nothing.
type AuthMiddleware struct {
	authService *service.AuthService
	cookieName  string
	secret      []byte
	logger      zerolog.Logger
}

// NewAuthMiddleware creates the session-resolving middleware.
func NewAuthMiddleware(authService *service.AuthService, cookieName string, secret []byte, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		cookieName:  cookieName,
		secret:      secret,
		logger:      logger.With().Str("component", "auth-middleware").Logger(),
	}
}

// Resolve attaches the session user to the request context when the
// cookie checks out. The user row is re-read on every request, so admin
// flag changes apply immediately.
func (m *AuthMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := crypto.VerifySignedToken(cookie.Value, m.secret)
		if !ok {
			m.logger.Debug().Msg("rejected mis-signed session cookie")
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.authService.ResolveSession(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and authenticated
// non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestAudit emits a request event for every authenticated API call.
// Reads of the activity log itself are excluded, otherwise viewing the
// trail would grow it.
func RequestAudit(recorder audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if ok && !strings.HasPrefix(r.URL.Path, "/api/admin/activity") {
				recorder.Record(r.Context(), audit.Event{
					Kind:      domain.ActivityRequest,
					UserID:    &user.ID,
					IPAddress: clientIP(r),
					Details: map[string]string{
						"path":   r.URL.Path,
						"method": r.Method,
					},
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}
