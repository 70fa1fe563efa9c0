package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

func makeTestComment(id, promptID, userID, content string, at time.Time) *domain.Comment {
	return &domain.Comment{
		Entity:   domain.Entity{ID: id, CreatedAt: at, UpdatedAt: at},
		PromptID: promptID,
		UserID:   userID,
		Content:  content,
	}
}

func TestComments_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")
	seedPrompt(t, s, "prompt-1", "")

	base := time.Now()
	if err := s.CreateComment(ctx, makeTestComment("cmt-2", "prompt-1", "user-1", "second", base.Add(time.Second))); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if err := s.CreateComment(ctx, makeTestComment("cmt-1", "prompt-1", "user-1", "first", base)); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	comments, err := s.ListComments(ctx, "prompt-1")
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 2 || comments[0].ID != "cmt-1" || comments[1].ID != "cmt-2" {
		t.Fatalf("expected oldest first, got %+v", comments)
	}
	if comments[0].Author.Username != "ada" {
		t.Errorf("Author: got %q", comments[0].Author.Username)
	}

	c := comments[0]
	c.Content = "edited"
	c.Touch()
	if err := s.UpdateComment(ctx, c); err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	got, err := s.GetComment(ctx, "cmt-1")
	if err != nil {
		t.Fatalf("GetComment: %v", err)
	}
	if got.Content != "edited" {
		t.Errorf("Content: got %q", got.Content)
	}

	counts, err := s.CommentCounts(ctx)
	if err != nil {
		t.Fatalf("CommentCounts: %v", err)
	}
	if counts["prompt-1"] != 2 {
		t.Errorf("CommentCounts: got %d", counts["prompt-1"])
	}

	if err := s.DeleteComment(ctx, "cmt-1"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if _, err := s.GetComment(ctx, "cmt-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteComment(ctx, "cmt-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestComments_AuthorWithoutUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "")
	seedPrompt(t, s, "prompt-1", "")

	if err := s.CreateComment(ctx, makeTestComment("cmt-1", "prompt-1", "user-1", "hi", time.Now())); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	got, err := s.GetComment(ctx, "cmt-1")
	if err != nil {
		t.Fatalf("GetComment: %v", err)
	}
	if got.Author.Username != domain.AnonymousAuthorName {
		t.Errorf("Author: got %q, want %q", got.Author.Username, domain.AnonymousAuthorName)
	}
}

func TestCreateComment_UnknownPrompt(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "user-1", "ada")

	err := s.CreateComment(context.Background(), makeTestComment("cmt-1", "missing", "user-1", "hi", time.Now()))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSiteStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")
	seedPrompt(t, s, "prompt-1", "user-1")
	seedPrompt(t, s, "prompt-2", "")

	if err := s.IncrementCopyCount(ctx, "prompt-1"); err != nil {
		t.Fatalf("IncrementCopyCount: %v", err)
	}
	if err := s.IncrementViewCount(ctx, "prompt-2"); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}

	stats, err := s.SiteStats(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("SiteStats: %v", err)
	}
	want := domain.SiteStats{TotalPrompts: 2, TotalUsers: 1, TotalViews: 1, TotalCopies: 1, RecentPrompts: 2, RecentUsers: 1}
	if *stats != want {
		t.Errorf("SiteStats: got %+v, want %+v", *stats, want)
	}

	future, err := s.SiteStats(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SiteStats: %v", err)
	}
	if future.RecentPrompts != 0 || future.RecentUsers != 0 {
		t.Errorf("expected no recent rows, got %+v", future)
	}
}
