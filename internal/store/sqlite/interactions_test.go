package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

func TestToggleInteraction_Alternates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")
	seedPrompt(t, s, "prompt-1", "")

	for i, want := range []bool{true, false, true} {
		got, err := s.ToggleInteraction(ctx, "user-1", "prompt-1", domain.ActionLike)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if got != want {
			t.Errorf("toggle %d: got %v, want %v", i, got, want)
		}
	}

	flags, err := s.ViewerFlags(ctx, "user-1")
	if err != nil {
		t.Fatalf("ViewerFlags: %v", err)
	}
	if !flags["prompt-1"].Liked || flags["prompt-1"].Bookmarked {
		t.Errorf("unexpected flags: %+v", flags["prompt-1"])
	}

	liked, err := s.HasInteraction(ctx, "user-1", "prompt-1", domain.ActionLike)
	if err != nil || !liked {
		t.Errorf("HasInteraction(like) = %v, %v; want true", liked, err)
	}
	bookmarked, err := s.HasInteraction(ctx, "user-1", "prompt-1", domain.ActionBookmark)
	if err != nil || bookmarked {
		t.Errorf("HasInteraction(bookmark) = %v, %v; want false", bookmarked, err)
	}
}

func TestToggleInteraction_KindsAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")
	seedUser(t, s, "user-2", "grace")
	seedPrompt(t, s, "prompt-1", "")

	mustToggle := func(userID string, kind domain.ActionKind) {
		t.Helper()
		if _, err := s.ToggleInteraction(ctx, userID, "prompt-1", kind); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}
	mustToggle("user-1", domain.ActionLike)
	mustToggle("user-1", domain.ActionBookmark)
	mustToggle("user-2", domain.ActionBookmark)

	counts, err := s.CountInteractions(ctx)
	if err != nil {
		t.Fatalf("CountInteractions: %v", err)
	}
	if c := counts["prompt-1"]; c.Likes != 1 || c.Bookmarks != 2 {
		t.Errorf("counts: %+v", c)
	}

	ids, err := s.ListInteractedPromptIDs(ctx, "user-2", domain.ActionBookmark)
	if err != nil {
		t.Fatalf("ListInteractedPromptIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "prompt-1" {
		t.Errorf("ids: %v", ids)
	}
}

func TestToggleInteraction_RejectsCopyAndUnknownPrompt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")

	if _, err := s.ToggleInteraction(ctx, "user-1", "prompt-1", domain.ActionCopy); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.ToggleInteraction(ctx, "user-1", "missing", domain.ActionLike); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleInteraction_ConcurrentEvenCountEndsUnset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")
	seedPrompt(t, s, "prompt-1", "")

	const n = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		sets   int
		failed []error
	)
	for range n {
		wg.Go(func() {
			set, err := s.ToggleInteraction(ctx, "user-1", "prompt-1", domain.ActionBookmark)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, err)
				return
			}
			if set {
				sets++
			}
		})
	}
	wg.Wait()

	if len(failed) > 0 {
		t.Fatalf("toggle errors: %v", failed)
	}
	if sets != n/2 {
		t.Errorf("expected %d sets, got %d", n/2, sets)
	}
	flags, err := s.ViewerFlags(ctx, "user-1")
	if err != nil {
		t.Fatalf("ViewerFlags: %v", err)
	}
	if flags["prompt-1"].Bookmarked {
		t.Error("even number of toggles should leave the bookmark unset")
	}
}

func TestRecordCopy_Repeatable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1", "ada")
	seedPrompt(t, s, "prompt-1", "")

	for range 2 {
		if err := s.RecordCopy(ctx, "user-1", "prompt-1"); err != nil {
			t.Fatalf("RecordCopy: %v", err)
		}
	}

	ids, err := s.ListInteractedPromptIDs(ctx, "user-1", domain.ActionCopy)
	if err != nil {
		t.Fatalf("ListInteractedPromptIDs: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("expected one copy row, got %v", ids)
	}

	counts, err := s.CountInteractions(ctx)
	if err != nil {
		t.Fatalf("CountInteractions: %v", err)
	}
	if _, ok := counts["prompt-1"]; ok {
		t.Errorf("copies must not count as likes or bookmarks: %+v", counts["prompt-1"])
	}
}

func TestViewerFlags_EmptyUser(t *testing.T) {
	s := newTestStore(t)
	flags, err := s.ViewerFlags(context.Background(), "")
	if err != nil {
		t.Fatalf("ViewerFlags: %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("expected no flags, got %v", flags)
	}
}
