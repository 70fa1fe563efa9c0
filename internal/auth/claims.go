package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// Private claim names carried next to the registered ones.
const (
	claimUserID  = "user_id"
	claimEmail   = "email"
	claimIsAdmin = "is_admin"
)

// AccessClaims is what a verified access token says about its bearer.
// Tokens are v4.local, so clients never see these values.
type AccessClaims struct {
	UserID  string
	Email   string
	IsAdmin bool

	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func stampUser(t *paseto.Token, u *domain.User) error {
	for name, v := range map[string]any{
		claimUserID:  u.ID,
		claimEmail:   u.Email,
		claimIsAdmin: u.IsAdmin,
	} {
		if err := t.Set(name, v); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

func readClaims(t *paseto.Token) (*AccessClaims, error) {
	var c AccessClaims
	var err error
	if c.UserID, err = t.GetString(claimUserID); err != nil {
		return nil, err
	}
	if c.Subject, err = t.GetSubject(); err != nil {
		return nil, err
	}
	if c.UserID != c.Subject {
		return nil, fmt.Errorf("subject %q does not match user %q", c.Subject, c.UserID)
	}
	// Optional claims; a token without them is still valid.
	c.Email, _ = t.GetString(claimEmail)
	_ = t.Get(claimIsAdmin, &c.IsAdmin)
	c.TokenID, _ = t.GetJti()
	c.IssuedAt, _ = t.GetIssuedAt()
	c.ExpiresAt, _ = t.GetExpiration()
	return &c, nil
}
