package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// LibraryService lists the prompts a user saved or liked.
type LibraryService struct {
	store   store.Store
	prompts *PromptService
	logger  *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(store store.Store, prompts *PromptService, logger *slog.Logger) *LibraryService {
	return &LibraryService{store: store, prompts: prompts, logger: logger}
}

// ParseLibraryKind maps the library tab name to an interaction kind.
// Empty selects bookmarks.
func ParseLibraryKind(s string) (domain.ActionKind, error) {
	switch s {
	case "", "bookmark", "bookmarks", "saved":
		return domain.ActionBookmark, nil
	case "like", "likes", "liked":
		return domain.ActionLike, nil
	default:
		return "", domainerrors.MalformedInputf("unknown library type %q", s)
	}
}

// Library returns the published prompts userID interacted with through kind,
// most recent interaction first.
func (s *LibraryService) Library(ctx context.Context, userID string, kind domain.ActionKind) ([]domain.PromptSummary, error) {
	if !kind.IsToggle() {
		return nil, domainerrors.MalformedInputf("library type must be like or bookmark, got %q", kind)
	}
	ids, err := s.store.ListInteractedPromptIDs(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s interactions: %w", kind, err)
	}
	if len(ids) == 0 {
		return []domain.PromptSummary{}, nil
	}
	return s.prompts.SummariesByIDs(ctx, ids, userID)
}
