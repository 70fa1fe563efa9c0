package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
)

func TestSignup_CreatesUserProfileAndSession(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Signup(ctx, SignupRequest{
		Email:    "  Ada@Example.com ",
		Password: "correct horse battery",
		Username: "ada",
	}, ClientInfo{IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "ada", resp.Profile.Username)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	account, err := env.auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", account.Profile.Username)

	counts, err := env.events.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.EventUserSignedUp])
}

func TestSignup_Validation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  SignupRequest
	}{
		{"bad email", SignupRequest{Email: "nope", Password: "correct horse", Username: "ada"}},
		{"short password", SignupRequest{Email: "a@example.com", Password: "short", Username: "ada"}},
		{"short username", SignupRequest{Email: "a@example.com", Password: "correct horse", Username: "ad"}},
		{"username with spaces", SignupRequest{Email: "a@example.com", Password: "correct horse", Username: "ada lovelace"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tt.req, ClientInfo{})
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := setupTest(t)
	env.signup(t, "ada")

	_, err := env.auth.Signup(context.Background(), SignupRequest{
		Email:    "ada@example.com",
		Password: "another password",
		Username: "ada2",
	}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	env.signup(t, "ada")

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "correct horse battery"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "ada", resp.Profile.Username)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong password"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRefresh_RotatesToken(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	signup := env.signup(t, "ada")

	refreshed, err := env.auth.Refresh(ctx, signup.RefreshToken, ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, signup.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, signup.User.ID, refreshed.User.ID)

	// The old token was consumed.
	_, err = env.auth.Refresh(ctx, signup.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = env.auth.Refresh(ctx, refreshed.RefreshToken, ClientInfo{})
	assert.NoError(t, err)
}

func TestRefresh_Expired(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	signup := env.signup(t, "ada")

	env.sessions.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, err := env.auth.Refresh(ctx, signup.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestLogout_RevokesSession(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	signup := env.signup(t, "ada")

	require.NoError(t, env.auth.Logout(ctx, signup.RefreshToken))
	require.NoError(t, env.auth.Logout(ctx, signup.RefreshToken), "logout is idempotent")

	_, err := env.auth.Refresh(ctx, signup.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestVerifyAccessToken_Invalid(t *testing.T) {
	env := setupTest(t)
	_, err := env.auth.VerifyAccessToken(context.Background(), "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestCleanupExpiredSessions(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	env.signup(t, "ada")
	env.signup(t, "grace")

	n, err := env.sessions.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.sessions.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	n, err = env.sessions.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
