package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// ProfileService provides public profiles.
type ProfileService struct {
	store   store.Store
	prompts *PromptService
	logger  *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store store.Store, prompts *PromptService, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, prompts: prompts, logger: logger}
}

// ProfileView is a profile page: the profile and its author's published prompts.
type ProfileView struct {
	Profile *domain.Profile        `json:"profile"`
	Prompts []domain.PromptSummary `json:"prompts"`
}

// UpdateProfileRequest changes profile fields. Nil fields are left as they are;
// empty strings clear optional fields.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Website  *string `json:"website,omitempty" validate:"omitempty,url,max=200"`
	Github   *string `json:"github,omitempty" validate:"omitempty,max=39"`
	Twitter  *string `json:"twitter,omitempty" validate:"omitempty,max=15"`
}

// GetProfile looks a profile up by username, then by user id.
func (s *ProfileService) GetProfile(ctx context.Context, usernameOrID, viewerID string) (*ProfileView, error) {
	profile, err := s.store.GetProfileByUsername(ctx, usernameOrID)
	if domainerrors.Is(err, store.ErrNotFound) {
		profile, err = s.store.GetProfile(ctx, usernameOrID)
	}
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("profile %s not found", usernameOrID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	prompts, err := s.prompts.summaries(ctx, store.PromptFilter{PublishedOnly: true, CreatedBy: profile.ID}, viewerID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{Profile: profile, Prompts: prompts}, nil
}

// UpdateProfile applies req to userID's profile. Usernames are unique.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.Profile, error) {
	trim(req.Username, req.Bio, req.Website, req.Github, req.Twitter)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("profile not found")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if req.Username != nil {
		if err := validateUsername(*req.Username); err != nil {
			return nil, err
		}
		profile.Username = *req.Username
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.Website != nil {
		profile.Website = *req.Website
	}
	if req.Github != nil {
		profile.Github = strings.TrimPrefix(*req.Github, "@")
	}
	if req.Twitter != nil {
		profile.Twitter = strings.TrimPrefix(*req.Twitter, "@")
	}
	profile.Touch()

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("username already taken")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return profile, nil
}

func trim(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}
