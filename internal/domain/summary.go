package domain

import "time"

// Author is the display identity attached to prompts and comments.
type Author struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

// AnonymousAuthorName is shown when an author has no profile username.
const AnonymousAuthorName = "Anonymous"

// PromptSummary is the read model used for listing and filtering.
// It is rebuilt on every list fetch.
type PromptSummary struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Content         string     `json:"content,omitempty"`
	Emoji           string     `json:"emoji,omitempty"`
	BackgroundColor string     `json:"background_color,omitempty"`
	TokenUsage      TokenUsage `json:"token_usage"`
	Author          Author     `json:"author"`
	CreatedAt       time.Time  `json:"created_at"`

	Categories []string `json:"categories"`
	AIModels   []string `json:"ai_models"`

	// Rating is the average rating, zero when unrated.
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`

	Saves    int `json:"saves"`
	Copies   int `json:"copies"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Views    int `json:"views"`

	IsLiked      bool `json:"is_liked"`
	IsBookmarked bool `json:"is_bookmarked"`
}

// Popularity is saves plus copies plus likes.
func (p PromptSummary) Popularity() int {
	return p.Saves + p.Copies + p.Likes
}

// ApplyToggle updates the viewer flags and counters after a successful like or bookmark toggle.
func (p *PromptSummary) ApplyToggle(action ActionKind, state ToggleState) {
	delta := -1
	if state == ToggleSet {
		delta = 1
	}
	switch action {
	case ActionLike:
		if p.IsLiked != (state == ToggleSet) {
			p.IsLiked = state == ToggleSet
			p.Likes = max(0, p.Likes+delta)
		}
	case ActionBookmark:
		if p.IsBookmarked != (state == ToggleSet) {
			p.IsBookmarked = state == ToggleSet
			p.Saves = max(0, p.Saves+delta)
		}
	}
}
