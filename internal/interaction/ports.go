package interaction

import (
	"context"

	"github.com/heyprompt/heyprompt-server/internal/clipboard"
	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// ContentSource loads the text of published prompts.
type ContentSource interface {
	GetPromptContent(ctx context.Context, id string) (title, content string, err error)
}

// ToggleStore persists interactions.
type ToggleStore interface {
	ToggleInteraction(ctx context.Context, userID, promptID string, kind domain.ActionKind) (bool, error)
	HasInteraction(ctx context.Context, userID, promptID string, kind domain.ActionKind) (bool, error)
	RecordCopy(ctx context.Context, userID, promptID string) error
	IncrementCopyCount(ctx context.Context, promptID string) error
}

// ClipboardFactory returns the default clipboard for an actor.
type ClipboardFactory func(actor domain.Actor) clipboard.Clipboard
