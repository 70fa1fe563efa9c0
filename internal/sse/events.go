// Package sse implements Server-Sent Events for toasts, optimistic interaction state and clipboard delivery.
package sse

import "time"

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventToast carries a user-visible notification.
	EventToast EventType = "toast"

	// EventInteractionPending is published when an optimistic value is applied.
	EventInteractionPending EventType = "interaction.pending"
	// EventInteractionCommitted is published when the store confirmed the value.
	EventInteractionCommitted EventType = "interaction.committed"
	// EventInteractionRolledBack is published when the optimistic value was reverted.
	EventInteractionRolledBack EventType = "interaction.rolled_back"

	// EventClipboardWrite asks the connected browser to put text on its clipboard.
	EventClipboardWrite EventType = "clipboard.write"

	// EventPromptCreated is broadcast when a prompt is published.
	EventPromptCreated EventType = "prompt.created"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// UserID and DeviceID address the event; both empty means every client.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	UserID    string    `json:"-"`
	DeviceID  string    `json:"-"`
}

// ToastData is the payload of a toast event.
type ToastData struct {
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// InteractionStateData is the payload of interaction.* events.
type InteractionStateData struct {
	PromptID   string `json:"prompt_id"`
	Action     string `json:"action"`
	Phase      string `json:"phase"`
	Value      string `json:"value,omitempty"`
	Generation uint64 `json:"generation"`
}

// ClipboardData is the payload of a clipboard.write event.
type ClipboardData struct {
	Text string `json:"text"`
}

// PromptCreatedData is the payload of a prompt.created event.
type PromptCreatedData struct {
	PromptID string `json:"prompt_id"`
	Title    string `json:"title"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewToastEvent creates a toast event.
func NewToastEvent(data ToastData) Event {
	return newEvent(EventToast, data)
}

// NewInteractionEvent creates an interaction state event for the given phase.
// Unknown phases map to interaction.pending.
func NewInteractionEvent(data InteractionStateData) Event {
	t := EventInteractionPending
	switch data.Phase {
	case "committed":
		t = EventInteractionCommitted
	case "rolled_back":
		t = EventInteractionRolledBack
	}
	return newEvent(t, data)
}

// NewClipboardEvent creates a clipboard.write event.
func NewClipboardEvent(text string) Event {
	return newEvent(EventClipboardWrite, ClipboardData{Text: text})
}

// NewPromptCreatedEvent creates a prompt.created event.
func NewPromptCreatedEvent(promptID, title string) Event {
	return newEvent(EventPromptCreated, PromptCreatedData{PromptID: promptID, Title: title})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, map[string]any{})
}
