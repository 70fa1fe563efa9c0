package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "updateMyProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profiles/me",
		Summary:     "Update my profile",
		Description: "Changes the given fields. An empty string clears an optional field.",
		Tags:        []string{"Profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMyProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles/{username}",
		Summary:     "Get profile",
		Description: "Returns a public profile and its published prompts. Accepts a username or user ID.",
		Tags:        []string{"Profiles"},
	}, s.handleGetProfile)
}

// ProfileInput identifies a profile.
type ProfileInput struct {
	Username string `path:"username" doc:"Username or user ID"`
}

// ProfileOutput wraps a profile page for Huma.
type ProfileOutput struct {
	Body *service.ProfileView
}

// UpdateProfileInput wraps a profile update for Huma.
type UpdateProfileInput struct {
	Body service.UpdateProfileRequest
}

// UpdateProfileOutput wraps the updated profile for Huma.
type UpdateProfileOutput struct {
	Body *domain.Profile
}

func (s *Server) handleGetProfile(ctx context.Context, input *ProfileInput) (*ProfileOutput, error) {
	view, err := s.services.Profile.GetProfile(ctx, input.Username, viewerFrom(ctx).UserID)
	if err != nil {
		return nil, err
	}
	view.Prompts = nonNil(view.Prompts)
	return &ProfileOutput{Body: view}, nil
}

func (s *Server) handleUpdateMyProfile(ctx context.Context, input *UpdateProfileInput) (*UpdateProfileOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.services.Profile.UpdateProfile(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &UpdateProfileOutput{Body: profile}, nil
}
