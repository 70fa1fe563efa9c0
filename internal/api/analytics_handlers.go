package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
)

func (s *Server) registerAnalyticsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "trackEvent",
		Method:        http.MethodPost,
		Path:          "/api/v1/analytics/events",
		Summary:       "Track event",
		Description:   "Records a product event. Requests sent with DNT: 1 are accepted and dropped.",
		Tags:          []string{"Analytics"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleTrackEvent)
}

// TrackEventInput is a client-side event.
type TrackEventInput struct {
	Body struct {
		Event      string         `json:"event" doc:"Event name, for example page_view"`
		Properties map[string]any `json:"properties,omitempty" doc:"Free-form event properties"`
		SessionID  string         `json:"sessionId,omitempty" doc:"Client session; defaults to the device ID"`
	}
}

// TrackEventResponse reports whether the event was kept.
type TrackEventResponse struct {
	Recorded bool `json:"recorded"`
}

// TrackEventOutput wraps the result for Huma.
type TrackEventOutput struct {
	Body TrackEventResponse
}

func (s *Server) handleTrackEvent(ctx context.Context, input *TrackEventInput) (*TrackEventOutput, error) {
	name := domain.EventName(input.Body.Event)
	if !name.Valid() {
		return nil, domainerrors.MalformedInputf("unknown event %q", input.Body.Event)
	}
	if s.services.Events == nil {
		return &TrackEventOutput{Body: TrackEventResponse{}}, nil
	}

	v := viewerFrom(ctx)
	session := input.Body.SessionID
	if session == "" {
		session = v.DeviceID
	}
	recorded := s.services.Events.Track(ctx, domain.AnalyticsEvent{
		Name:       name,
		Properties: input.Body.Properties,
		UserID:     v.UserID,
		SessionID:  session,
	})
	return &TrackEventOutput{Body: TrackEventResponse{Recorded: recorded}}, nil
}
