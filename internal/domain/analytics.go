package domain

import "time"

// EventName is a tracked product event.
type EventName string

// Tracked events.
const (
	EventPageView        EventName = "page_view"
	EventPromptViewed    EventName = "prompt_viewed"
	EventPromptCopied    EventName = "prompt_copied"
	EventPromptSaved     EventName = "prompt_saved"
	EventPromptLiked     EventName = "prompt_liked"
	EventSearchPerformed EventName = "search_performed"
	EventUserSignedUp    EventName = "user_signed_up"
	EventUserSignedIn    EventName = "user_signed_in"
	EventPromptSubmitted EventName = "prompt_submitted"
	EventFeatureUsed     EventName = "feature_used"
)

// Valid reports whether e is a known event.
func (e EventName) Valid() bool {
	switch e {
	case EventPageView, EventPromptViewed, EventPromptCopied, EventPromptSaved, EventPromptLiked,
		EventSearchPerformed, EventUserSignedUp, EventUserSignedIn, EventPromptSubmitted, EventFeatureUsed:
		return true
	}
	return false
}

// AnalyticsEvent is one tracked event.
type AnalyticsEvent struct {
	ID         string         `json:"id"`
	Name       EventName      `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// SiteStats is the admin dashboard summary.
type SiteStats struct {
	TotalPrompts  int `json:"total_prompts"`
	TotalUsers    int `json:"total_users"`
	TotalViews    int `json:"total_views"`
	TotalCopies   int `json:"total_copies"`
	RecentPrompts int `json:"recent_prompts"`
	RecentUsers   int `json:"recent_users"`
}
