// Package clipboard delivers copied prompt text to the visitor's clipboard.
//
// The server cannot touch a browser clipboard directly. Response hands the text
// back in the HTTP body for the client to write; SSE pushes it to the visitor's
// open event stream.
package clipboard

import (
	"context"
	"errors"
	"sync"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/sse"
)

// ErrUnavailable is returned when the text cannot be delivered.
var ErrUnavailable = errors.New("clipboard unavailable")

// Clipboard accepts text for the visitor's clipboard.
type Clipboard interface {
	Write(ctx context.Context, text string) error
}

// Delivery selects a clipboard implementation for a request.
type Delivery string

// Deliveries.
const (
	DeliveryResponse Delivery = "response"
	DeliveryStream   Delivery = "stream"
)

// ParseDelivery normalizes the delivery query parameter. Empty means response.
func ParseDelivery(s string) (Delivery, bool) {
	switch Delivery(s) {
	case "", DeliveryResponse:
		return DeliveryResponse, true
	case DeliveryStream:
		return DeliveryStream, true
	}
	return "", false
}

// Response keeps the written text so the handler can return it in the body.
type Response struct {
	mu   sync.Mutex
	text string
	set  bool
}

// Write implements Clipboard.
func (r *Response) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text, r.set = text, true
	return nil
}

// Text returns the captured text and whether anything was written.
func (r *Response) Text() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text, r.set
}

// SSE sends a clipboard.write event to the actor's streams.
type SSE struct {
	manager *sse.Manager
	actor   domain.Actor
}

// NewSSE creates a clipboard bound to one actor's streams.
func NewSSE(manager *sse.Manager, actor domain.Actor) *SSE {
	return &SSE{manager: manager, actor: actor}
}

// Write implements Clipboard. It fails with ErrUnavailable when the actor has no open stream.
func (s *SSE) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	event := sse.NewClipboardEvent(text)
	if s.actor.IsAuthenticated() {
		if !s.manager.HasClient(s.actor.UserID, "") {
			return ErrUnavailable
		}
		s.manager.EmitToUser(s.actor.UserID, event)
		return nil
	}
	if s.actor.DeviceID == "" || !s.manager.HasClient("", s.actor.DeviceID) {
		return ErrUnavailable
	}
	s.manager.EmitToDevice(s.actor.DeviceID, event)
	return nil
}

// Fake is a scriptable clipboard for tests.
type Fake struct {
	mu     sync.Mutex
	Err    error
	writes []string
}

// Write implements Clipboard. A non-nil Err fails every write.
func (f *Fake) Write(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.writes = append(f.writes, text)
	return nil
}

// Writes returns the texts written so far.
func (f *Fake) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}
