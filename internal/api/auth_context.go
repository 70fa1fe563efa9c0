package api

import (
	"context"
	"errors"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/service"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

var errUnidentified = errors.New("request carries neither a token nor a device id")

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const viewerKey ctxKey = "viewer"

// viewer is the caller of a request as resolved by identifyMiddleware.
type viewer struct {
	UserID   string
	IsAdmin  bool
	DeviceID string
	Client   service.ClientInfo
}

func withViewer(ctx context.Context, v viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

func viewerFrom(ctx context.Context) viewer {
	v, _ := ctx.Value(viewerKey).(viewer)
	return v
}

// GetUserID returns the authenticated user ID from context.
// Returns a 401 error if the request is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID := viewerFrom(ctx).UserID
	if userID == "" {
		return "", domainerrors.Unauthorized("authentication required")
	}
	return userID, nil
}

// actorFrom returns the interaction actor of the request.
// Requests without a user or device yield an anonymous actor with no device.
func actorFrom(ctx context.Context) domain.Actor {
	v := viewerFrom(ctx)
	if v.UserID != "" {
		return domain.AuthenticatedActor(v.UserID)
	}
	return domain.AnonymousActor(v.DeviceID)
}

// RequireAdmin validates the user is authenticated and currently an admin.
// The flag is read from the store, so a revoked admin loses access before their token expires.
func (s *Server) RequireAdmin(ctx context.Context) (string, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return "", err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return "", domainerrors.Unauthorized("user not found")
		}
		return "", err
	}

	if !user.IsAdmin {
		return "", domainerrors.Forbidden("admin access required")
	}

	return userID, nil
}

// isAdmin reports whether the request carries an admin token.
func isAdmin(ctx context.Context) bool {
	return viewerFrom(ctx).IsAdmin
}
