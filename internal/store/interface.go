// Package store defines the persistence interface for the HeyPrompt server.
package store

import (
	"context"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User, profile *domain.Profile) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	SetUserAdmin(ctx context.Context, userID string, isAdmin bool) error

	// Auth sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Profiles
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error)
	GetProfilesByIDs(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error

	// Prompts
	CreatePrompt(ctx context.Context, prompt *domain.Prompt, tagIDs []string) error
	GetPrompt(ctx context.Context, id string) (*domain.Prompt, error)
	GetPromptContent(ctx context.Context, id string) (title, content string, err error)
	ListPrompts(ctx context.Context, filter PromptFilter) ([]*domain.Prompt, error)
	IncrementCopyCount(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
	UpsertPackPrompts(ctx context.Context, prompts []PackPrompt) (created, updated int, err error)

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTagBySlug(ctx context.Context, tagType domain.TagType, slug string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	FindOrCreateTag(ctx context.Context, tagType domain.TagType, name string) (*domain.Tag, bool, error)
	ListPromptTagLinks(ctx context.Context) (map[string][]string, error)

	// Interactions
	ToggleInteraction(ctx context.Context, userID, promptID string, kind domain.ActionKind) (bool, error)
	RecordCopy(ctx context.Context, userID, promptID string) error
	HasInteraction(ctx context.Context, userID, promptID string, kind domain.ActionKind) (bool, error)
	CountInteractions(ctx context.Context) (map[string]InteractionCounts, error)
	ViewerFlags(ctx context.Context, userID string) (map[string]ViewerFlags, error)
	ListInteractedPromptIDs(ctx context.Context, userID string, kind domain.ActionKind) ([]string, error)

	// Ratings
	UpsertRating(ctx context.Context, rating *domain.Rating) error
	GetRatingSummary(ctx context.Context, promptID, viewerID string) (*domain.RatingSummary, error)
	RatingAggregates(ctx context.Context) (map[string]RatingAggregate, error)

	// Comments
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	ListComments(ctx context.Context, promptID string) ([]*domain.Comment, error)
	UpdateComment(ctx context.Context, comment *domain.Comment) error
	DeleteComment(ctx context.Context, id string) error
	CommentCounts(ctx context.Context) (map[string]int, error)

	// Admin
	SiteStats(ctx context.Context, since time.Time) (*domain.SiteStats, error)
}
