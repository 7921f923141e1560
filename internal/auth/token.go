// Package auth issues and verifies the bearer tokens that carry a caller's
// identity between requests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

// Claims is the JWT body. The subject is the user id.
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs HS256 access tokens with a fixed lifetime and decides when a
// token is close enough to expiry to be renewed.
type Tokens struct {
	secret      []byte
	ttl         time.Duration
	renewWindow time.Duration
	now         func() time.Time
}

// NewTokens constructs a Tokens. renewWindow is how long before expiry a
// token becomes eligible for renewal.
func NewTokens(secret string, ttl, renewWindow time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, renewWindow: renewWindow, now: time.Now}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u *model.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp.Truncate(time.Second), nil
}

// Parse verifies a token and returns the identity it carries. Every failure
// is Unauthenticated.
func (t *Tokens) Parse(token string) (model.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, model.Unauthenticated("token expired")
		}
		return model.Identity{}, model.Unauthenticated("invalid token")
	}
	if claims.Subject == "" || (claims.Role != model.RoleAdmin && claims.Role != model.RoleParticipant) {
		return model.Identity{}, model.Unauthenticated("invalid token")
	}
	return model.Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ShouldRenew reports whether id's token has entered its renewal window.
func (t *Tokens) ShouldRenew(id model.Identity) bool {
	return !t.now().Before(id.ExpiresAt.Add(-t.renewWindow))
}
