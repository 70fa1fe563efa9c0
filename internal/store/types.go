package store

import "github.com/heyprompt/heyprompt-server/internal/domain"

// InteractionCounts are per-prompt interaction totals.
type InteractionCounts struct {
	Likes     int
	Bookmarks int
}

// RatingAggregate is the average and count of one prompt's ratings.
type RatingAggregate struct {
	Average float64
	Count   int
}

// ViewerFlags are the viewer's own interactions with a prompt.
type ViewerFlags struct {
	Liked      bool
	Bookmarked bool
}

// PromptFilter narrows prompt listings.
type PromptFilter struct {
	// PublishedOnly hides drafts.
	PublishedOnly bool
	// CreatedBy limits results to one author when set.
	CreatedBy string
	// IDs limits results to the given prompt ids when non-nil.
	IDs []string
}

// PackPrompt is one prompt of an imported pack, with resolved tag ids.
type PackPrompt struct {
	Prompt *domain.Prompt
	TagIDs []string
}
