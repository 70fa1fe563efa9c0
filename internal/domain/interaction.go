package domain

import "time"

// ActionKind is what a visitor asked to do with a prompt.
type ActionKind string

// Actions.
const (
	ActionCopy     ActionKind = "copy"
	ActionLike     ActionKind = "like"
	ActionBookmark ActionKind = "bookmark"
)

// Valid reports whether a is a known action.
func (a ActionKind) Valid() bool {
	return a == ActionCopy || a == ActionLike || a == ActionBookmark
}

// IsToggle reports whether the action alternates between set and unset.
func (a ActionKind) IsToggle() bool {
	return a == ActionLike || a == ActionBookmark
}

// ActorKind distinguishes signed-in users from anonymous visitors.
type ActorKind string

// Actor kinds.
const (
	ActorAuthenticated ActorKind = "authenticated"
	ActorAnonymous     ActorKind = "anonymous"
)

// Actor is whoever dispatched an interaction.
// Authenticated actors carry a UserID. Anonymous actors carry the DeviceID issued to their browser.
type Actor struct {
	Kind     ActorKind `json:"kind"`
	UserID   string    `json:"user_id,omitempty"`
	DeviceID string    `json:"device_id,omitempty"`
}

// AuthenticatedActor builds an actor for a signed-in user.
func AuthenticatedActor(userID string) Actor {
	return Actor{Kind: ActorAuthenticated, UserID: userID}
}

// AnonymousActor builds an actor for a visitor identified only by device.
func AnonymousActor(deviceID string) Actor {
	return Actor{Kind: ActorAnonymous, DeviceID: deviceID}
}

// IsAuthenticated reports whether the actor has a user account.
func (a Actor) IsAuthenticated() bool {
	return a.Kind == ActorAuthenticated && a.UserID != ""
}

// Key identifies the actor in per-actor state such as locks and caches.
func (a Actor) Key() string {
	if a.IsAuthenticated() {
		return "user:" + a.UserID
	}
	return "device:" + a.DeviceID
}

// InteractionRequest asks the dispatcher to perform an action on a prompt.
type InteractionRequest struct {
	Action    ActionKind `json:"action"`
	SubjectID string     `json:"subject_id"`
	Actor     Actor      `json:"actor"`
}

// OutcomeKind is the result class of a dispatch.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeExecuted             OutcomeKind = "executed"
	OutcomeBlockedNeedsAuth     OutcomeKind = "blocked_needs_auth"
	OutcomeBlockedQuotaExceeded OutcomeKind = "blocked_quota_exceeded"
	OutcomeFailed               OutcomeKind = "failed"
)

// FailureReason explains a failed outcome.
type FailureReason string

// Failure reasons.
const (
	ReasonClipboardUnavailable FailureReason = "clipboard_unavailable"
	ReasonRemoteError          FailureReason = "remote_error"
)

// ToggleState is the state of a like or bookmark after a dispatch.
type ToggleState string

// Toggle states.
const (
	ToggleSet   ToggleState = "set"
	ToggleUnset ToggleState = "unset"
)

// InteractionOutcome is what a dispatch returns.
// State is set only for executed toggles. Content and Remaining are set for copies.
type InteractionOutcome struct {
	Kind      OutcomeKind   `json:"kind"`
	Action    ActionKind    `json:"action"`
	SubjectID string        `json:"subject_id"`
	State     ToggleState   `json:"state,omitempty"`
	Reason    FailureReason `json:"reason,omitempty"`
	Content   string        `json:"content,omitempty"`
	Remaining *int          `json:"remaining,omitempty"`
	Err       error         `json:"-"`
}

// Interaction is a stored like, bookmark or copy record.
// Likes and bookmarks are unique per (user, prompt, type).
type Interaction struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	PromptID  string     `json:"prompt_id"`
	Type      ActionKind `json:"interaction_type"`
	CreatedAt time.Time  `json:"created_at"`
}
