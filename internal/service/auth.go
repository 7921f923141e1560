package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/event-reservations/internal/auth"
	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

const minPasswordLen = 6

// AuthService registers accounts and turns credentials into tokens.
type AuthService struct {
	users  UserStore
	tokens *auth.Tokens
	logger *slog.Logger
	cost   int
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, tokens *auth.Tokens, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
}

// Register creates a participant account and signs the new user in.
// Admin accounts are only created by SeedAdmin.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		return nil, model.Invalid("name is required")
	}
	if !isValidEmail(req.Email) {
		return nil, model.Invalid("email is not a valid email address")
	}
	if len(req.Password) < minPasswordLen {
		return nil, model.Invalid("password must be at least %d characters", minPasswordLen)
	}

	u, err := s.createUser(ctx, req.Name, req.Email, req.Password, model.RoleParticipant)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user_registered", "user_id", u.ID)
	return s.respond(u)
}

// Login checks the password and issues a token. Unknown e-mail and wrong
// password fail the same way.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.Unauthenticated("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.Unauthenticated("invalid credentials")
	}
	return s.respond(u)
}

// Authenticate resolves a bearer token to the caller it names. The account
// must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return model.Identity{}, err
	}
	u, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, model.Unauthenticated("user no longer exists")
		}
		return model.Identity{}, err
	}
	// The stored role wins over the one baked into the token.
	id.Role = u.Role
	id.Email = u.Email
	return id, nil
}

// Refresh reissues the caller's token once it is inside its renewal window.
// Earlier than that the presented token is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, caller model.Identity, token string) (*model.AuthResponse, error) {
	u, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !s.tokens.ShouldRenew(caller) {
		return &model.AuthResponse{AccessToken: token, ExpiresAt: caller.ExpiresAt, User: u.Summary()}, nil
	}
	s.logger.DebugContext(ctx, "token_renewed", "user_id", u.ID)
	return s.respond(u)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, caller model.Identity) (*model.UserSummary, error) {
	u, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	summary := u.Summary()
	return &summary, nil
}

// SeedAdmin makes sure an admin account with the given e-mail exists. An
// existing account is left untouched.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		s.logger.WarnContext(ctx, "admin_seed_skipped", "reason", "ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	u, err := s.createUser(ctx, name, email, password, model.RoleAdmin)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil
		}
		return err
	}
	s.logger.InfoContext(ctx, "admin_seeded", "user_id", u.ID, "email", u.Email)
	return nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) respond(u *model.User) (*model.AuthResponse, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{AccessToken: token, ExpiresAt: exp, User: u.Summary()}, nil
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
