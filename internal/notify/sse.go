package notify

import (
	"context"

	"github.com/heyprompt/heyprompt-server/internal/sse"
)

// SSE delivers notifications as toast events on the recipient's open streams.
// A recipient without a stream simply misses the toast.
type SSE struct {
	manager *sse.Manager
}

// NewSSE creates an SSE notifier.
func NewSSE(manager *sse.Manager) *SSE {
	return &SSE{manager: manager}
}

// Notify implements Notifier.
func (s *SSE) Notify(_ context.Context, n Notification) {
	event := sse.NewToastEvent(sse.ToastData{
		Severity:    string(n.Severity),
		Title:       n.Title,
		Description: n.Description,
	})
	switch {
	case n.Audience.UserID != "":
		s.manager.EmitToUser(n.Audience.UserID, event)
	case n.Audience.DeviceID != "":
		s.manager.EmitToDevice(n.Audience.DeviceID, event)
	}
}
