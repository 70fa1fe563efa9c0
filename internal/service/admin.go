package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// RecentWindow is how far back the "recent" admin counters look.
const RecentWindow = 7 * 24 * time.Hour

// AdminService handles admin-only analytics and user management.
// Callers enforce the admin check.
type AdminService struct {
	store    store.Store
	events   *analytics.Recorder
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdminService creates a new admin service. events may be nil.
func NewAdminService(store store.Store, events *analytics.Recorder, notifier notify.Notifier, logger *slog.Logger) *AdminService {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &AdminService{
		store:    store,
		events:   events,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// AdminAnalytics is the admin dashboard.
type AdminAnalytics struct {
	domain.SiteStats
	EventCounts  map[domain.EventName]int `json:"event_counts"`
	RecentEvents []domain.AnalyticsEvent  `json:"recent_events"`
}

// Analytics returns site totals, the counts of the last week, and the buffered events.
func (s *AdminService) Analytics(ctx context.Context) (*AdminAnalytics, error) {
	stats, err := s.store.SiteStats(ctx, s.now().Add(-RecentWindow))
	if err != nil {
		return nil, fmt.Errorf("site stats: %w", err)
	}

	out := &AdminAnalytics{
		SiteStats:    *stats,
		EventCounts:  map[domain.EventName]int{},
		RecentEvents: []domain.AnalyticsEvent{},
	}
	if s.events == nil {
		return out, nil
	}

	// The event buffer is a best-effort cache; the dashboard still renders without it.
	if counts, err := s.events.Counts(ctx); err != nil {
		s.logger.Warn("analytics counts unavailable", "error", err)
	} else {
		out.EventCounts = counts
	}
	if recent, err := s.events.Recent(ctx, 20); err != nil {
		s.logger.Warn("analytics events unavailable", "error", err)
	} else {
		out.RecentEvents = recent
	}
	return out, nil
}

// ListUsers returns every user.
func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetAdmin grants or revokes admin rights. Admins cannot revoke their own.
func (s *AdminService) SetAdmin(ctx context.Context, actorID, userID string, isAdmin bool) (*domain.User, error) {
	if actorID == userID && !isAdmin {
		return nil, domainerrors.Forbidden("cannot remove your own admin rights")
	}

	to := notify.Audience{UserID: actorID}
	if err := s.store.SetUserAdmin(ctx, userID, isAdmin); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		s.notifier.Notify(ctx, notify.Error(to, "Error", "Failed to update user admin status"))
		return nil, fmt.Errorf("set admin: %w", err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	verb := "removed from"
	if isAdmin {
		verb = "promoted to"
	}
	s.notifier.Notify(ctx, notify.Info(to, "Success", fmt.Sprintf("User %s admin", verb)))
	s.logger.Info("admin status changed", "user_id", userID, "is_admin", isAdmin, "by", actorID)
	return user, nil
}
