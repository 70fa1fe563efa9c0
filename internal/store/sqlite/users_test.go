package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "user-1", "ada")

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("Email: got %q, want %q", got.Email, u.Email)
	}
	if !got.LastLoginAt.IsZero() {
		t.Errorf("LastLoginAt: expected zero, got %v", got.LastLoginAt)
	}

	byEmail, err := s.GetUserByEmail(ctx, "USER-1@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Errorf("GetUserByEmail: got %q", byEmail.ID)
	}

	profile, err := s.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Username != "ada" {
		t.Errorf("Username: got %q", profile.Username)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-1", "ada")

	now := time.Now()
	dup := &domain.User{
		Entity:       domain.Entity{ID: "user-2", CreatedAt: now, UpdatedAt: now},
		Email:        "user-1@example.com",
		PasswordHash: "hash",
	}
	err := s.CreateUser(context.Background(), dup, nil)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateUser_DuplicateUsernameRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")

	now := time.Now()
	u := &domain.User{
		Entity:       domain.Entity{ID: "user-2", CreatedAt: now, UpdatedAt: now},
		Email:        "other@example.com",
		PasswordHash: "hash",
	}
	p := &domain.Profile{Entity: domain.Entity{CreatedAt: now, UpdatedAt: now}, Username: "ADA"}
	if err := s.CreateUser(ctx, u, p); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := s.GetUser(ctx, "user-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("user should not exist after rollback, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetUser(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "user-1", "ada")

	u.LastLoginAt = time.Now()
	u.Touch()
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.LastLoginAt.Unix() != u.LastLoginAt.Unix() {
		t.Errorf("LastLoginAt: got %v, want %v", got.LastLoginAt, u.LastLoginAt)
	}

	missing := &domain.User{Entity: domain.Entity{ID: "nope"}, Email: "x@example.com"}
	if err := s.UpdateUser(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetUserAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")

	if err := s.SetUserAdmin(ctx, "user-1", true); err != nil {
		t.Fatalf("SetUserAdmin: %v", err)
	}

	u, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	p, err := s.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !u.IsAdmin || !p.IsAdmin {
		t.Errorf("expected admin on user and profile, got user=%v profile=%v", u.IsAdmin, p.IsAdmin)
	}

	if err := s.SetUserAdmin(ctx, "missing", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-1", "ada")
	seedUser(t, s, "user-2", "grace")

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")
	seedUser(t, s, "user-2", "grace")

	p, err := s.GetProfileByUsername(ctx, "Grace")
	if err != nil {
		t.Fatalf("GetProfileByUsername: %v", err)
	}
	if p.ID != "user-2" {
		t.Errorf("ID: got %q", p.ID)
	}

	p.Bio = "Compilers"
	p.Username = "ada"
	if err := s.UpdateProfile(ctx, p); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for taken username, got %v", err)
	}

	p.Username = "hopper"
	if err := s.UpdateProfile(ctx, p); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	profiles, err := s.GetProfilesByIDs(ctx, []string{"user-1", "user-2", "missing"})
	if err != nil {
		t.Fatalf("GetProfilesByIDs: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles["user-2"].Username != "hopper" || profiles["user-2"].Bio != "Compilers" {
		t.Errorf("unexpected profile: %+v", profiles["user-2"])
	}
}
