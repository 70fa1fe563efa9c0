package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// RatingService records star ratings.
type RatingService struct {
	store    store.Store
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewRatingService creates a rating service.
func NewRatingService(store store.Store, notifier notify.Notifier, logger *slog.Logger) *RatingService {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &RatingService{store: store, notifier: notifier, logger: logger}
}

// Rate sets userID's rating of a prompt, replacing any earlier rating.
func (s *RatingService) Rate(ctx context.Context, userID, promptID string, value int) (*domain.RatingSummary, error) {
	if value < domain.MinRatingValue || value > domain.MaxRatingValue {
		return nil, domainerrors.MalformedInputf("rating must be between %d and %d, got %d",
			domain.MinRatingValue, domain.MaxRatingValue, value)
	}
	if err := requirePublishedPrompt(ctx, s.store, promptID); err != nil {
		return nil, err
	}

	ratingID, err := id.Generate("rate")
	if err != nil {
		return nil, fmt.Errorf("generate rating ID: %w", err)
	}
	now := time.Now()
	r := &domain.Rating{
		Entity:   domain.Entity{ID: ratingID, CreatedAt: now, UpdatedAt: now},
		PromptID: promptID,
		UserID:   userID,
		Value:    value,
	}

	to := notify.Audience{UserID: userID}
	if err := s.store.UpsertRating(ctx, r); err != nil {
		s.notifier.Notify(ctx, notify.Error(to, "Error", "Failed to submit rating"))
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	stars := "stars"
	if value == 1 {
		stars = "star"
	}
	s.notifier.Notify(ctx, notify.Info(to, "Rating submitted", fmt.Sprintf("You rated this prompt %d %s", value, stars)))

	return s.Summary(ctx, promptID, userID)
}

// Summary returns the rating aggregate of a prompt, including viewerID's own rating.
func (s *RatingService) Summary(ctx context.Context, promptID, viewerID string) (*domain.RatingSummary, error) {
	if err := requirePublishedPrompt(ctx, s.store, promptID); err != nil {
		return nil, err
	}
	summary, err := s.store.GetRatingSummary(ctx, promptID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}
	return summary, nil
}
