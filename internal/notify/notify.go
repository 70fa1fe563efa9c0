// Package notify delivers short user-visible notifications ("toasts").
package notify

import (
	"context"
	"sync"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// Severity selects how a notification is rendered.
type Severity string

// Severities.
const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Audience addresses a notification to a signed-in user or an anonymous device.
type Audience struct {
	UserID   string `json:"user_id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
}

// AudienceOf returns the audience matching an actor.
func AudienceOf(a domain.Actor) Audience {
	if a.IsAuthenticated() {
		return Audience{UserID: a.UserID}
	}
	return Audience{DeviceID: a.DeviceID}
}

// Notification is one toast.
type Notification struct {
	Audience    Audience `json:"-"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
}

// Info builds an info notification.
func Info(to Audience, title, description string) Notification {
	return Notification{Audience: to, Severity: SeverityInfo, Title: title, Description: description}
}

// Error builds an error notification.
func Error(to Audience, title, description string) Notification {
	return Notification{Audience: to, Severity: SeverityError, Title: title, Description: description}
}

// Notifier delivers notifications. Delivery is best effort and never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Discard drops every notification.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(context.Context, Notification) {}

// Recorder keeps every notification in memory. It is used by tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns a copy of the notifications received so far.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
