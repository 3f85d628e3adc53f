package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/domain"
	"github.com/prn-tf/reelhouse/internal/pkg/crypto"
)

func newAuthFixture(t *testing.T) (*AuthService, *MockUserRepository, *MockSessionRepository, *CapturingRecorder) {
	t.Helper()
	users := NewMockUserRepository()
	sessions := NewMockSessionRepository()
	recorder := &CapturingRecorder{}
	svc := NewAuthService(users, sessions, recorder, zerolog.Nop())
	return svc, users, sessions, recorder
}

func seedUser(t *testing.T, users *MockUserRepository, username, password string) *domain.User {
	t.Helper()
	secret, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := domain.NewUser(username, username+"@example.com", secret)
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success emits one login event", func(t *testing.T) {
		svc, users, sessions, recorder := newAuthFixture(t)
		seedUser(t, users, "alice", "password1")

		user, session, err := svc.Login(ctx, LoginInput{
			Username:  "alice",
			Password:  "password1",
			IPAddress: "10.0.0.1",
			UserAgent: "test-agent",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("expected user alice, got %s", user.Username)
		}
		if session == nil || session.Token == "" {
			t.Fatal("expected a session with a token")
		}
		if _, ok := sessions.sessions[session.Token]; !ok {
			t.Error("expected session to be persisted")
		}
		if got := session.ExpiresAt.Sub(session.CreatedAt); got != domain.SessionTTL {
			t.Errorf("expected TTL %v, got %v", domain.SessionTTL, got)
		}

		logins := recorder.EventsOfKind(domain.ActivityLogin)
		if len(logins) != 1 {
			t.Fatalf("expected exactly 1 login event, got %d", len(logins))
		}
		if logins[0].UserID == nil || *logins[0].UserID != user.ID {
			t.Error("expected login event attributed to the user")
		}
		if logins[0].IPAddress != "10.0.0.1" {
			t.Errorf("expected event IP 10.0.0.1, got %s", logins[0].IPAddress)
		}
		if logins[0].Details["userAgent"] != "test-agent" {
			t.Error("expected user-agent detail on login event")
		}
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		svc, users, _, recorder := newAuthFixture(t)
		seedUser(t, users, "alice", "password1")

		_, _, errUnknown := svc.Login(ctx, LoginInput{Username: "nobody", Password: "password1"})
		_, _, errWrong := svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong"})

		if !errors.Is(errUnknown, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", errUnknown)
		}
		if !errors.Is(errWrong, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", errWrong)
		}
		if errUnknown.Error() != errWrong.Error() {
			t.Error("login failure reasons must not be differentiated")
		}
		if len(recorder.Events()) != 0 {
			t.Errorf("failed login must emit zero events, got %d", len(recorder.Events()))
		}
	})

	t.Run("username lookup is case-sensitive", func(t *testing.T) {
		svc, users, _, _ := newAuthFixture(t)
		seedUser(t, users, "alice", "password1")

		if _, _, err := svc.Login(ctx, LoginInput{Username: "Alice", Password: "password1"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("legacy plaintext secret upgrades on successful login", func(t *testing.T) {
		svc, users, _, _ := newAuthFixture(t)
		user := domain.NewUser("legacy", "legacy@example.com", "admin123")
		if err := users.Create(ctx, user); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}

		if _, _, err := svc.Login(ctx, LoginInput{Username: "legacy", Password: "admin123"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stored := users.users[user.ID].PasswordSecret
		if stored == "admin123" {
			t.Fatal("expected stored secret to be upgraded")
		}
		if !strings.Contains(stored, ".") {
			t.Fatalf("expected derived format, got %q", stored)
		}
		if ok, err := crypto.VerifyPassword("admin123", stored); err != nil || !ok {
			t.Errorf("upgraded secret must still verify: ok=%v err=%v", ok, err)
		}
	})

	t.Run("legacy plaintext wrong password does not upgrade", func(t *testing.T) {
		svc, users, _, _ := newAuthFixture(t)
		user := domain.NewUser("legacy", "legacy@example.com", "admin123")
		if err := users.Create(ctx, user); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}

		if _, _, err := svc.Login(ctx, LoginInput{Username: "legacy", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if users.users[user.ID].PasswordSecret != "admin123" {
			t.Error("failed login must not touch the stored secret")
		}
	})

	t.Run("malformed stored secret fails closed", func(t *testing.T) {
		svc, users, _, recorder := newAuthFixture(t)
		user := domain.NewUser("broken", "broken@example.com", "nosaltpart.")
		if err := users.Create(ctx, user); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}

		if _, _, err := svc.Login(ctx, LoginInput{Username: "broken", Password: "anything"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		if len(recorder.Events()) != 0 {
			t.Error("expected no events for a failed login")
		}
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success creates user and session", func(t *testing.T) {
		svc, users, _, recorder := newAuthFixture(t)

		user, session, err := svc.Register(ctx, RegisterInput{
			Username:  "newuser",
			Email:     "new@example.com",
			Password:  "password1",
			IPAddress: "10.0.0.2",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.IsAdmin {
			t.Error("registered users must not be admins")
		}
		if session == nil {
			t.Fatal("expected a session")
		}
		if !strings.Contains(users.users[user.ID].PasswordSecret, ".") {
			t.Error("expected stored secret in derived format")
		}

		events := recorder.EventsOfKind(domain.ActivityRegistration)
		if len(events) != 1 {
			t.Fatalf("expected exactly 1 registration event, got %d", len(events))
		}
	})

	t.Run("duplicate username leaves no side effects", func(t *testing.T) {
		svc, users, sessions, recorder := newAuthFixture(t)
		seedUser(t, users, "taken", "password1")

		_, _, err := svc.Register(ctx, RegisterInput{
			Username: "taken",
			Email:    "other@example.com",
			Password: "password2",
		})
		if !errors.Is(err, ErrUserAlreadyExists) {
			t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
		}
		if len(users.users) != 1 {
			t.Errorf("expected 1 user, got %d", len(users.users))
		}
		if len(sessions.sessions) != 0 {
			t.Errorf("expected no sessions, got %d", len(sessions.sessions))
		}
		if len(recorder.Events()) != 0 {
			t.Errorf("expected no events, got %d", len(recorder.Events()))
		}
	})

	t.Run("duplicate email leaves no side effects", func(t *testing.T) {
		svc, users, sessions, recorder := newAuthFixture(t)
		seedUser(t, users, "original", "password1")

		_, _, err := svc.Register(ctx, RegisterInput{
			Username: "different",
			Email:    "original@example.com",
			Password: "password2",
		})
		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
		}
		if len(users.users) != 1 {
			t.Errorf("expected 1 user, got %d", len(users.users))
		}
		if len(sessions.sessions) != 0 {
			t.Errorf("expected no sessions, got %d", len(sessions.sessions))
		}
		if len(recorder.Events()) != 0 {
			t.Errorf("expected no events, got %d", len(recorder.Events()))
		}
	})

	t.Run("validation", func(t *testing.T) {
		svc, _, _, _ := newAuthFixture(t)

		tests := []struct {
			name    string
			input   RegisterInput
			wantErr error
		}{
			{"short username", RegisterInput{Username: "ab", Email: "a@b.com", Password: "password1"}, ErrInvalidUsername},
			{"short password", RegisterInput{Username: "valid", Email: "a@b.com", Password: "12345"}, ErrInvalidPassword},
			{"bad email", RegisterInput{Username: "valid", Email: "not-an-email", Password: "password1"}, ErrInvalidEmail},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, _, err := svc.Register(ctx, tt.input); !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, users, sessions, recorder := newAuthFixture(t)
	user := seedUser(t, users, "alice", "password1")

	_, session, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "password1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Logout(ctx, session.Token, Actor{UserID: &user.ID, IPAddress: "10.0.0.1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := sessions.sessions[session.Token]; ok {
		t.Error("expected session to be deleted")
	}
	if got := recorder.EventsOfKind(domain.ActivityLogout); len(got) != 1 {
		t.Fatalf("expected exactly 1 logout event, got %d", len(got))
	}
}

func TestAuthService_ResolveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("valid session resolves current user state", func(t *testing.T) {
		svc, users, _, _ := newAuthFixture(t)
		user := seedUser(t, users, "alice", "password1")

		_, session, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "password1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Promote after login: the flag must be visible immediately.
		promoted := *users.users[user.ID]
		promoted.IsAdmin = true
		if err := users.Update(ctx, &promoted); err != nil {
			t.Fatalf("failed to promote: %v", err)
		}

		resolved, err := svc.ResolveSession(ctx, session.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resolved.IsAdmin {
			t.Error("expected admin flag to be re-read per request")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _, _, _ := newAuthFixture(t)
		if _, err := svc.ResolveSession(ctx, "does-not-exist"); !errors.Is(err, ErrSessionInvalid) {
			t.Errorf("expected ErrSessionInvalid, got %v", err)
		}
	})

	t.Run("expired session is rejected and removed", func(t *testing.T) {
		svc, users, sessions, _ := newAuthFixture(t)
		user := seedUser(t, users, "alice", "password1")

		now := time.Now().UTC()
		sessions.sessions["expired-token"] = &domain.Session{
			Token:     "expired-token",
			UserID:    user.ID,
			CreatedAt: now.Add(-domain.SessionTTL),
			ExpiresAt: now,
		}

		if _, err := svc.ResolveSession(ctx, "expired-token"); !errors.Is(err, ErrSessionInvalid) {
			t.Errorf("expected ErrSessionInvalid, got %v", err)
		}
		if _, ok := sessions.sessions["expired-token"]; ok {
			t.Error("expected expired session to be deleted")
		}
	})

	t.Run("session of a deleted user dies with it", func(t *testing.T) {
		svc, users, sessions, _ := newAuthFixture(t)
		user := seedUser(t, users, "alice", "password1")

		_, session, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "password1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := users.Delete(ctx, user.ID); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := svc.ResolveSession(ctx, session.Token); !errors.Is(err, ErrSessionInvalid) {
			t.Errorf("expected ErrSessionInvalid, got %v", err)
		}
		if _, ok := sessions.sessions[session.Token]; ok {
			t.Error("expected orphaned session to be deleted")
		}
	})
}

func TestSession_ExpiryBoundary(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	session := &domain.Session{
		CreatedAt: created,
		ExpiresAt: created.Add(domain.SessionTTL),
	}

	if session.Expired(session.ExpiresAt.Add(-time.Nanosecond)) {
		t.Error("session must be valid strictly before expiry")
	}
	if !session.Expired(session.ExpiresAt) {
		t.Error("session must be expired exactly at expiry")
	}
	if !session.Expired(session.ExpiresAt.Add(time.Nanosecond)) {
		t.Error("session must be expired after expiry")
	}
}
