package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestTokens_IssueParse(t *testing.T) {
	tok := NewTokens("secret", 24*time.Hour, 6*time.Hour)
	u := &model.User{ID: "u1", Email: "a@b.c", Role: model.RoleAdmin}

	signed, exp, err := tok.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := tok.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.UserID != "u1" || id.Role != model.RoleAdmin || !id.IsAdmin() {
		t.Fatalf("identity = %+v", id)
	}
	if !id.ExpiresAt.Equal(exp) {
		t.Fatalf("ExpiresAt = %v, want %v", id.ExpiresAt, exp)
	}
}

func TestTokens_Rejects(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := NewTokens("secret", time.Hour, 10*time.Minute)
	tok.now = fixedClock(base)
	good, _, _ := tok.Issue(&model.User{ID: "u1", Role: model.RoleParticipant})

	other := NewTokens("other", time.Hour, 0)
	other.now = fixedClock(base)
	forged, _, _ := other.Issue(&model.User{ID: "u1", Role: model.RoleAdmin})

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	expired := NewTokens("secret", time.Hour, 0)
	expired.now = fixedClock(base.Add(2 * time.Hour))

	tests := []struct {
		name   string
		parser *Tokens
		token  string
	}{
		{"garbage", tok, "not-a-token"},
		{"wrong secret", tok, forged},
		{"alg none", tok, none},
		{"expired", expired, good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse(tt.token)
			if !errors.Is(err, model.ErrUnauthenticated) {
				t.Fatalf("got %v, want unauthenticated", err)
			}
		})
	}
}

func TestTokens_ShouldRenew(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := NewTokens("secret", 24*time.Hour, 6*time.Hour)
	id := model.Identity{ExpiresAt: base.Add(24 * time.Hour)}

	tok.now = fixedClock(base.Add(17 * time.Hour))
	if tok.ShouldRenew(id) {
		t.Fatalf("7h before expiry should not renew")
	}
	tok.now = fixedClock(base.Add(18 * time.Hour))
	if !tok.ShouldRenew(id) {
		t.Fatalf("6h before expiry should renew")
	}
}
