package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/domain"
)

func newUserFixture(t *testing.T) (*UserService, *MockUserRepository, *CapturingRecorder) {
	t.Helper()
	users := NewMockUserRepository()
	recorder := &CapturingRecorder{}
	svc := NewUserService(users, recorder, zerolog.Nop())
	return svc, users, recorder
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	adminID := int64(1)
	actor := Actor{UserID: &adminID, IPAddress: "10.0.0.1"}

	t.Run("success emits create_user event", func(t *testing.T) {
		svc, users, recorder := newUserFixture(t)

		user, err := svc.Create(ctx, CreateUserInput{
			Username: "newadmin",
			Email:    "newadmin@example.com",
			Password: "password1",
			IsAdmin:  true,
		}, actor)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !user.IsAdmin {
			t.Error("expected admin flag to be honored")
		}
		if !strings.Contains(users.users[user.ID].PasswordSecret, ".") {
			t.Error("expected stored secret in derived format")
		}

		events := recorder.EventsOfKind(domain.ActivityCreateUser)
		if len(events) != 1 {
			t.Fatalf("expected 1 create_user event, got %d", len(events))
		}
		if events[0].Details["createdUsername"] != "newadmin" {
			t.Error("expected createdUsername detail")
		}
		if events[0].UserID == nil || *events[0].UserID != adminID {
			t.Error("expected event attributed to the acting admin")
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc, _, recorder := newUserFixture(t)

		input := CreateUserInput{Username: "dupe", Email: "dupe@example.com", Password: "password1"}
		if _, err := svc.Create(ctx, input, actor); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.Create(ctx, input, actor); !errors.Is(err, ErrUserAlreadyExists) {
			t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
		}
		if events := recorder.EventsOfKind(domain.ActivityCreateUser); len(events) != 1 {
			t.Errorf("expected 1 create_user event, got %d", len(events))
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, recorder := newUserFixture(t)

		if _, err := svc.Create(ctx, CreateUserInput{Username: "first", Email: "shared@example.com", Password: "password1"}, actor); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.Create(ctx, CreateUserInput{Username: "second", Email: "shared@example.com", Password: "password1"}, actor); !errors.Is(err, ErrEmailAlreadyExists) {
			t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
		}
		if events := recorder.EventsOfKind(domain.ActivityCreateUser); len(events) != 1 {
			t.Errorf("expected 1 create_user event, got %d", len(events))
		}
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserFixture(t)

	user := domain.NewUser("alice", "alice@example.com", "secret")
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	isAdmin := true
	updated, err := svc.Update(ctx, user.ID, UpdateUserInput{IsAdmin: &isAdmin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.IsAdmin {
		t.Error("expected promotion to stick")
	}
	if updated.Username != "alice" {
		t.Error("untouched fields must survive a partial update")
	}

	badEmail := "not-an-email"
	if _, err := svc.Update(ctx, user.ID, UpdateUserInput{Email: &badEmail}); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}

	if _, err := svc.Update(ctx, 999, UpdateUserInput{}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserFixture(t)

	user := domain.NewUser("alice", "alice@example.com", "secret")
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
