package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// CommentService manages prompt comments.
type CommentService struct {
	store    store.Store
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewCommentService creates a comment service.
func NewCommentService(store store.Store, notifier notify.Notifier, logger *slog.Logger) *CommentService {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &CommentService{store: store, notifier: notifier, logger: logger}
}

// List returns a prompt's comments, oldest first.
func (s *CommentService) List(ctx context.Context, promptID string) ([]*domain.Comment, error) {
	if err := s.requirePrompt(ctx, promptID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, promptID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Create adds a comment by userID.
func (s *CommentService) Create(ctx context.Context, userID, promptID, content string) (*domain.Comment, error) {
	to := notify.Audience{UserID: userID}

	content, err := normalizeComment(content)
	if err != nil {
		return nil, err
	}
	if err := s.requirePrompt(ctx, promptID); err != nil {
		return nil, err
	}

	commentID, err := id.Generate("cmt")
	if err != nil {
		return nil, fmt.Errorf("generate comment ID: %w", err)
	}
	now := time.Now()
	c := &domain.Comment{
		Entity:   domain.Entity{ID: commentID, CreatedAt: now, UpdatedAt: now},
		PromptID: promptID,
		UserID:   userID,
		Content:  content,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		s.notifier.Notify(ctx, notify.Error(to, "Error", "Failed to post comment. Please try again."))
		return nil, fmt.Errorf("create comment: %w", err)
	}

	created, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		s.logger.Debug("reload comment failed", "comment_id", commentID, "error", err)
		created = c
	}

	s.notifier.Notify(ctx, notify.Info(to, "Comment posted!", "Your comment has been added."))
	return created, nil
}

// Update replaces the content of a comment. Only its author may edit it.
func (s *CommentService) Update(ctx context.Context, userID, commentID, content string) (*domain.Comment, error) {
	to := notify.Audience{UserID: userID}

	content, err := normalizeComment(content)
	if err != nil {
		return nil, err
	}
	c, err := s.ownComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}

	c.Content = content
	c.Touch()
	if err := s.store.UpdateComment(ctx, c); err != nil {
		s.notifier.Notify(ctx, notify.Error(to, "Error", "Failed to update comment"))
		return nil, fmt.Errorf("update comment: %w", err)
	}

	s.notifier.Notify(ctx, notify.Info(to, "Comment updated", "Your comment has been updated"))
	return c, nil
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	to := notify.Audience{UserID: userID}

	if _, err := s.ownComment(ctx, userID, commentID); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		s.notifier.Notify(ctx, notify.Error(to, "Error", "Failed to delete comment"))
		return fmt.Errorf("delete comment: %w", err)
	}

	s.notifier.Notify(ctx, notify.Info(to, "Comment deleted", "Your comment has been removed"))
	return nil
}

func (s *CommentService) ownComment(ctx context.Context, userID, commentID string) (*domain.Comment, error) {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("comment %s not found", commentID)
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if c.UserID != userID {
		return nil, domainerrors.Forbidden("only the author can change this comment")
	}
	return c, nil
}

func (s *CommentService) requirePrompt(ctx context.Context, promptID string) error {
	return requirePublishedPrompt(ctx, s.store, promptID)
}

// requirePublishedPrompt maps a missing or unpublished prompt to NOT_FOUND.
func requirePublishedPrompt(ctx context.Context, st store.Store, promptID string) error {
	p, err := st.GetPrompt(ctx, promptID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("prompt %s not found", promptID)
		}
		return fmt.Errorf("get prompt: %w", err)
	}
	if !p.IsPublished {
		return domainerrors.NotFoundf("prompt %s not found", promptID)
	}
	return nil
}

func normalizeComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	if n < domain.CommentMinLength || n > domain.CommentMaxLength {
		return "", domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"content": fmt.Sprintf("must be between %d and %d characters", domain.CommentMinLength, domain.CommentMaxLength),
		})
	}
	return content, nil
}
