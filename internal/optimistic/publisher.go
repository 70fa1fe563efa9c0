package optimistic

import (
	"context"

	"github.com/heyprompt/heyprompt-server/internal/sse"
)

// SSEPublisher sends each transition to the acting user's or device's streams.
type SSEPublisher struct {
	Manager *sse.Manager
}

// Publish implements Publisher.
func (p SSEPublisher) Publish(_ context.Context, s State) {
	event := sse.NewInteractionEvent(sse.InteractionStateData{
		PromptID:   s.Key.Subject,
		Action:     string(s.Key.Action),
		Phase:      string(s.Phase),
		Value:      string(s.ToggleState()),
		Generation: s.Generation,
	})
	if s.Key.Actor.IsAuthenticated() {
		p.Manager.EmitToUser(s.Key.Actor.UserID, event)
		return
	}
	if s.Key.Actor.DeviceID != "" {
		p.Manager.EmitToDevice(s.Key.Actor.DeviceID, event)
	}
}
