package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

func TestCreateAndGetPrompt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")

	p := seedPrompt(t, s, "prompt-1", "user-1")

	got, err := s.GetPrompt(ctx, "prompt-1")
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if got.Title != p.Title || got.Content != p.Content || got.CreatedBy != "user-1" {
		t.Errorf("unexpected prompt: %+v", got)
	}
	if got.Version != 1 {
		t.Errorf("Version: got %d, want 1", got.Version)
	}
	if !got.IsPublished {
		t.Error("expected published")
	}

	if _, err := s.GetPrompt(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePrompt_UnknownTagRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	p := &domain.Prompt{
		Entity:      domain.Entity{ID: "prompt-1", CreatedAt: now, UpdatedAt: now},
		Title:       "t",
		Description: "d",
		Content:     "c",
		TokenUsage:  domain.TokenUsageLow,
	}
	if err := s.CreatePrompt(ctx, p, []string{"tag-missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetPrompt(ctx, "prompt-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("prompt should not exist after rollback, got %v", err)
	}
}

func TestGetPromptContent_PublishedOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPrompt(t, s, "prompt-1", "")
	title, content, err := s.GetPromptContent(ctx, "prompt-1")
	if err != nil {
		t.Fatalf("GetPromptContent: %v", err)
	}
	if title != "Title prompt-1" || content != "Content prompt-1" {
		t.Errorf("got %q / %q", title, content)
	}

	now := time.Now()
	draft := &domain.Prompt{
		Entity:      domain.Entity{ID: "draft-1", CreatedAt: now, UpdatedAt: now},
		Title:       "Draft",
		Description: "d",
		Content:     "secret",
		TokenUsage:  domain.TokenUsageLow,
	}
	if err := s.CreatePrompt(ctx, draft, nil); err != nil {
		t.Fatalf("CreatePrompt: %v", err)
	}
	if _, _, err := s.GetPromptContent(ctx, "draft-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("drafts must not be copyable, got %v", err)
	}
}

func TestListPrompts_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")

	seedPrompt(t, s, "prompt-1", "user-1")
	seedPrompt(t, s, "prompt-2", "")

	now := time.Now()
	draft := &domain.Prompt{
		Entity:      domain.Entity{ID: "draft-1", CreatedAt: now, UpdatedAt: now},
		Title:       "Draft",
		Description: "d",
		Content:     "c",
		TokenUsage:  domain.TokenUsageLow,
		CreatedBy:   "user-1",
	}
	if err := s.CreatePrompt(ctx, draft, nil); err != nil {
		t.Fatalf("CreatePrompt: %v", err)
	}

	tests := []struct {
		name   string
		filter store.PromptFilter
		want   int
	}{
		{"all", store.PromptFilter{}, 3},
		{"published", store.PromptFilter{PublishedOnly: true}, 2},
		{"by author", store.PromptFilter{CreatedBy: "user-1"}, 2},
		{"published by author", store.PromptFilter{CreatedBy: "user-1", PublishedOnly: true}, 1},
		{"by ids", store.PromptFilter{IDs: []string{"prompt-2", "draft-1"}}, 2},
		{"empty ids", store.PromptFilter{IDs: []string{}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListPrompts(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListPrompts: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d prompts, want %d", len(got), tt.want)
			}
		})
	}
}

func TestIncrementCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPrompt(t, s, "prompt-1", "")

	for range 3 {
		if err := s.IncrementCopyCount(ctx, "prompt-1"); err != nil {
			t.Fatalf("IncrementCopyCount: %v", err)
		}
	}
	if err := s.IncrementViewCount(ctx, "prompt-1"); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}

	got, err := s.GetPrompt(ctx, "prompt-1")
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if got.CopyCount != 3 || got.ViewCount != 1 {
		t.Errorf("counters: copies=%d views=%d", got.CopyCount, got.ViewCount)
	}

	if err := s.IncrementCopyCount(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertPackPrompts_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, _, err := s.FindOrCreateTag(ctx, domain.TagTypeCategory, "Writers")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}

	build := func(id, title string) []store.PackPrompt {
		now := time.Now()
		return []store.PackPrompt{{
			Prompt: &domain.Prompt{
				Entity:      domain.Entity{ID: id, CreatedAt: now, UpdatedAt: now},
				Title:       title,
				Description: "From a pack",
				Content:     "Write about {{topic}}",
				TokenUsage:  domain.TokenUsageLow,
				IsPublished: true,
				PackID:      "starter",
				PackKey:     "essay",
			},
			TagIDs: []string{tag.ID},
		}}
	}

	created, updated, err := s.UpsertPackPrompts(ctx, build("prompt-a", "Essay"))
	if err != nil {
		t.Fatalf("UpsertPackPrompts: %v", err)
	}
	if created != 1 || updated != 0 {
		t.Errorf("first import: created=%d updated=%d", created, updated)
	}
	if err := s.IncrementCopyCount(ctx, "prompt-a"); err != nil {
		t.Fatalf("IncrementCopyCount: %v", err)
	}

	created, updated, err = s.UpsertPackPrompts(ctx, build("prompt-b", "Essay v2"))
	if err != nil {
		t.Fatalf("UpsertPackPrompts again: %v", err)
	}
	if created != 0 || updated != 1 {
		t.Errorf("re-import: created=%d updated=%d", created, updated)
	}

	all, err := s.ListPrompts(ctx, store.PromptFilter{})
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 prompt after re-import, got %d", len(all))
	}
	if all[0].ID != "prompt-a" || all[0].Title != "Essay v2" || all[0].CopyCount != 1 {
		t.Errorf("unexpected prompt after re-import: %+v", all[0])
	}

	links, err := s.ListPromptTagLinks(ctx)
	if err != nil {
		t.Fatalf("ListPromptTagLinks: %v", err)
	}
	if len(links["prompt-a"]) != 1 {
		t.Errorf("links: got %v", links["prompt-a"])
	}
}
