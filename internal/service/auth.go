// Package service implements the HeyPrompt use cases on top of the store,
// search index, KV-backed caches and notification stream.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/auth"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/store"
	"github.com/heyprompt/heyprompt-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validateUsername(username string) error {
	if err := validate.Var("username", username, "required,min=3,max=30"); err != nil {
		return err
	}
	if !usernamePattern.MatchString(username) {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"username": "may only contain letters, digits, '_' and '-'",
		})
	}
	return nil
}

// AuthService handles signup, login and token verification.
// Session management is delegated to SessionService.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	events         *analytics.Recorder
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service. events may be nil.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	events *analytics.Recorder,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		events:         events,
		logger:         logger,
	}
}

// SignupRequest creates an account and its public profile.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Username string `json:"username" validate:"required,min=3,max=30"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	*SessionResponse
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

// Account is the signed-in user with their profile.
type Account struct {
	User    *domain.User    `json:"user"`
	Profile *domain.Profile `json:"profile"`
}

// Signup creates a user with an argon2id password hash and signs them in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest, client ClientInfo) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Entity:       domain.Entity{ID: userID, CreatedAt: now, UpdatedAt: now},
		Email:        req.Email,
		PasswordHash: passwordHash,
		LastLoginAt:  now,
	}
	profile := &domain.Profile{
		Entity:   domain.Entity{CreatedAt: now, UpdatedAt: now},
		Username: req.Username,
	}

	if err := s.store.CreateUser(ctx, user, profile); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists(signupConflict(err))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.track(ctx, domain.EventUserSignedUp, user.ID)
	s.logger.Info("user signed up", "user_id", user.ID, "username", profile.Username)

	return &AuthResponse{SessionResponse: session, User: user, Profile: profile}, nil
}

// Login verifies credentials and opens a new session.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	session, err := s.sessionService.CreateSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, user.ID)
	if err != nil {
		s.logger.Debug("profile lookup failed", "user_id", user.ID, "error", err)
		profile = nil
	}

	s.track(ctx, domain.EventUserSignedIn, user.ID)
	return &AuthResponse{SessionResponse: session, User: user, Profile: profile}, nil
}

// Refresh rotates a refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domainerrors.Unauthorized("refresh token is required")
	}
	session, user, err := s.sessionService.RefreshSession(ctx, refreshToken, client)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{SessionResponse: session, User: user}, nil
}

// Logout revokes the session of refreshToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessionService.RevokeSession(ctx, refreshToken)
}

// VerifyAccessToken validates a bearer token and returns its claims.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired access token").WithCause(err)
	}
	return claims, nil
}

// Me returns the account of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*Account, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil && !domainerrors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &Account{User: user, Profile: profile}, nil
}

func (s *AuthService) track(ctx context.Context, name domain.EventName, userID string) {
	if s.events == nil {
		return
	}
	s.events.Track(ctx, domain.AnalyticsEvent{Name: name, UserID: userID})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// signupConflict names the unique field a failed signup collided with.
func signupConflict(err error) string {
	switch store.EntityOf(err) {
	case "email":
		return "email already registered"
	case "username":
		return "username already taken"
	}
	return "account already exists"
}
