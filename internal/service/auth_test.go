package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/event-reservations/internal/auth"
	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
	"github.com/Shivanand-hulikatti/event-reservations/internal/repository"
)

func newAuthService(t *testing.T) (*AuthService, *auth.Tokens) {
	t.Helper()
	tokens := auth.NewTokens("test-secret", time.Hour, 10*time.Minute)
	s := NewAuthService(repository.NewMemoryStore().Users(), tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.cost = bcrypt.MinCost
	return s, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newAuthService(t)

	resp, err := s.Register(ctx, model.RegisterRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Role != model.RoleParticipant || resp.User.Email != "ana@example.com" || resp.AccessToken == "" {
		t.Fatalf("register response = %+v", resp)
	}

	id, err := s.Authenticate(ctx, resp.AccessToken)
	if err != nil || id.UserID != resp.User.ID {
		t.Fatalf("Authenticate = %+v, %v", id, err)
	}

	if _, err := s.Login(ctx, model.LoginRequest{Email: "ANA@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = s.Login(ctx, model.LoginRequest{Email: "ana@example.com", Password: "wrong!"})
	wantKind(t, err, model.ErrUnauthenticated)
	_, err = s.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	wantKind(t, err, model.ErrUnauthenticated)

	_, err = s.Register(ctx, model.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	wantKind(t, err, model.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newAuthService(t)
	tests := []struct {
		name string
		req  model.RegisterRequest
	}{
		{"no name", model.RegisterRequest{Email: "a@b.co", Password: "secret1"}},
		{"bad email", model.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret1"}},
		{"short password", model.RegisterRequest{Name: "A", Email: "a@b.co", Password: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.req)
			wantKind(t, err, model.ErrValidation)
		})
	}
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newAuthService(t)

	for range 2 {
		if err := s.SeedAdmin(ctx, "Admin", "admin@event.com", "admin123"); err != nil {
			t.Fatalf("SeedAdmin: %v", err)
		}
	}
	resp, err := s.Login(ctx, model.LoginRequest{Email: "admin@event.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if resp.User.Role != model.RoleAdmin {
		t.Fatalf("role = %s", resp.User.Role)
	}

	if err := s.SeedAdmin(ctx, "Admin", "", ""); err != nil {
		t.Fatalf("empty seed should be skipped: %v", err)
	}
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	s, tokens := newAuthService(t)
	token, _, _ := tokens.Issue(&model.User{ID: "ghost", Role: model.RoleParticipant})
	_, err := s.Authenticate(context.Background(), token)
	wantKind(t, err, model.ErrUnauthenticated)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	s, _ := newAuthService(t)
	resp, err := s.Register(ctx, model.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	id, _ := s.Authenticate(ctx, resp.AccessToken)

	// Fresh token: outside the renewal window, returned unchanged.
	got, err := s.Refresh(ctx, id, resp.AccessToken)
	if err != nil || got.AccessToken != resp.AccessToken {
		t.Fatalf("early refresh = %+v, %v", got, err)
	}

	// Near expiry: a new token with a later expiry.
	id.ExpiresAt = time.Now().Add(5 * time.Minute)
	got, err = s.Refresh(ctx, id, resp.AccessToken)
	if err != nil {
		t.Fatalf("late refresh: %v", err)
	}
	if !got.ExpiresAt.After(id.ExpiresAt) {
		t.Fatalf("renewed token expires %v, not after %v", got.ExpiresAt, id.ExpiresAt)
	}
}
