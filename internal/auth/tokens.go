package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/id"
)

const (
	issuer   = "heyprompt-server"
	audience = "heyprompt-web"
)

// TokenService mints encrypted v4.local access tokens and opaque refresh
// tokens. Only the SHA-256 of a refresh token is ever persisted.
type TokenService struct {
	key        paseto.V4SymmetricKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(key []byte, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", keyLength, len(key))
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("load token key: %w", err)
	}
	return &TokenService{key: k, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}, nil
}

// GenerateAccessToken issues a token for user valid for the access TTL.
func (s *TokenService) GenerateAccessToken(user *domain.User) (string, error) {
	jti, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}
	issued := s.now()

	t := paseto.NewToken()
	t.SetIssuer(issuer)
	t.SetAudience(audience)
	t.SetSubject(user.ID)
	t.SetJti(jti)
	t.SetIssuedAt(issued)
	t.SetNotBefore(issued)
	t.SetExpiration(issued.Add(s.accessTTL))
	if err := stampUser(&t, user); err != nil {
		return "", err
	}
	return t.V4Encrypt(s.key, nil), nil
}

// VerifyAccessToken decrypts token and checks issuer, audience and validity window.
func (s *TokenService) VerifyAccessToken(token string) (*AccessClaims, error) {
	p := paseto.MakeParser([]paseto.Rule{
		paseto.IssuedBy(issuer),
		paseto.ForAudience(audience),
		paseto.ValidAt(s.now()),
	})
	t, err := p.ParseV4Local(s.key, token, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return readClaims(t)
}

// GenerateRefreshToken returns 32 random bytes, base64url encoded.
func (s *TokenService) GenerateRefreshToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashRefreshToken is the lookup key stored with a session.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *TokenService) AccessTokenDuration() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTokenDuration() time.Duration { return s.refreshTTL }
