package domain

import "strings"

// TokenUsage is the coarse cost bucket a prompt is filed under.
type TokenUsage string

// Token usage buckets.
const (
	TokenUsageLow    TokenUsage = "low"
	TokenUsageMedium TokenUsage = "medium"
	TokenUsageHigh   TokenUsage = "high"
)

// Valid reports whether t is one of the known buckets.
func (t TokenUsage) Valid() bool {
	switch t {
	case TokenUsageLow, TokenUsageMedium, TokenUsageHigh:
		return true
	}
	return false
}

// ParseTokenUsage normalizes user input such as "Medium" into a bucket.
func ParseTokenUsage(s string) (TokenUsage, bool) {
	t := TokenUsage(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Prompt is a stored prompt template.
// Drafts have IsPublished=false and are visible only to their author and admins.
type Prompt struct {
	Entity
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Content         string     `json:"prompt_content"`
	TokenUsage      TokenUsage `json:"token_usage"`
	Emoji           string     `json:"emoji,omitempty"`
	BackgroundColor string     `json:"background_color,omitempty"`
	CopyCount       int        `json:"copy_count"`
	ViewCount       int        `json:"view_count"`
	IsPublished     bool       `json:"is_published"`
	CreatedBy       string     `json:"created_by,omitempty"`
	ParentPromptID  string     `json:"parent_prompt_id,omitempty"`
	Version         int        `json:"version"`

	// PackID and PackKey identify prompts imported from a prompt pack so re-imports update in place.
	PackID  string `json:"pack_id,omitempty"`
	PackKey string `json:"pack_key,omitempty"`
}
