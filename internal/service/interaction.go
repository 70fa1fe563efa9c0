package service

import (
	"context"
	"log/slog"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/clipboard"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/interaction"
	"github.com/heyprompt/heyprompt-server/internal/optimistic"
	"github.com/heyprompt/heyprompt-server/internal/quota"
	"github.com/heyprompt/heyprompt-server/internal/sse"
)

// InteractionService performs copies, likes and bookmarks for visitors.
type InteractionService struct {
	dispatcher *interaction.Dispatcher
	quota      *quota.Tracker
	sse        *sse.Manager
	events     *analytics.Recorder
	logger     *slog.Logger
}

// NewInteractionService creates a new interaction service. sseManager and events may be nil.
func NewInteractionService(dispatcher *interaction.Dispatcher, tracker *quota.Tracker, sseManager *sse.Manager, events *analytics.Recorder, logger *slog.Logger) *InteractionService {
	return &InteractionService{
		dispatcher: dispatcher,
		quota:      tracker,
		sse:        sseManager,
		events:     events,
		logger:     logger,
	}
}

// InteractionResult is an outcome plus the optimistic state it left behind.
type InteractionResult struct {
	domain.InteractionOutcome
	Phase optimistic.Phase `json:"phase,omitempty"`
}

// Perform dispatches one action. Copies deliver the text in the result or over
// the actor's event stream, depending on delivery.
func (s *InteractionService) Perform(ctx context.Context, actor domain.Actor, action domain.ActionKind, promptID string, delivery clipboard.Delivery) (*InteractionResult, error) {
	req := domain.InteractionRequest{Action: action, SubjectID: promptID, Actor: actor}

	var opts []interaction.DispatchOption
	if action == domain.ActionCopy {
		var cb clipboard.Clipboard = &clipboard.Response{}
		if delivery == clipboard.DeliveryStream {
			if s.sse == nil {
				return nil, domainerrors.ClipboardUnavailable("event streams are disabled")
			}
			cb = clipboard.NewSSE(s.sse, actor)
		}
		opts = append(opts, interaction.WithClipboard(cb))
	}

	out, err := s.dispatcher.Dispatch(ctx, req, opts...)
	if err != nil {
		return nil, err
	}

	// Text delivered over the stream stays out of the response body.
	if delivery == clipboard.DeliveryStream {
		out.Content = ""
	}

	res := &InteractionResult{InteractionOutcome: out}
	if action.IsToggle() && actor.IsAuthenticated() {
		res.Phase = s.dispatcher.Ledger().Get(optimistic.Key{Actor: actor, Subject: promptID, Action: action}).Phase
	}

	if out.Kind == domain.OutcomeExecuted {
		s.track(ctx, actor, out)
	}
	return res, nil
}

func (s *InteractionService) track(ctx context.Context, actor domain.Actor, out domain.InteractionOutcome) {
	if s.events == nil {
		return
	}
	var name domain.EventName
	switch out.Action {
	case domain.ActionCopy:
		name = domain.EventPromptCopied
	case domain.ActionLike:
		name = domain.EventPromptLiked
	case domain.ActionBookmark:
		name = domain.EventPromptSaved
	}
	props := map[string]any{"prompt_id": out.SubjectID}
	if out.State != "" {
		props["state"] = string(out.State)
	}
	s.events.Track(ctx, domain.AnalyticsEvent{
		Name:       name,
		Properties: props,
		UserID:     actor.UserID,
		SessionID:  actor.DeviceID,
	})
}

// State returns the optimistic state of one toggle for an actor.
func (s *InteractionService) State(actor domain.Actor, action domain.ActionKind, promptID string) (optimistic.State, error) {
	if !action.IsToggle() {
		return optimistic.State{}, domainerrors.MalformedInputf("%q has no toggle state", action)
	}
	if !actor.IsAuthenticated() {
		return optimistic.State{}, domainerrors.NeedsAuthentication("sign in to like or bookmark prompts")
	}
	return s.dispatcher.Ledger().Get(optimistic.Key{Actor: actor, Subject: promptID, Action: action}), nil
}

// Quota returns an anonymous device's copy quota.
func (s *InteractionService) Quota(ctx context.Context, deviceID string) domain.QuotaStatus {
	return s.quota.For(deviceID).Status(ctx)
}
