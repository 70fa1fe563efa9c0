package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/clipboard"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/optimistic"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

func (s *Server) registerInteractionRoutes() {
	for _, action := range []domain.ActionKind{domain.ActionCopy, domain.ActionLike, domain.ActionBookmark} {
		huma.Register(s.api, huma.Operation{
			OperationID: string(action) + "Prompt",
			Method:      http.MethodPost,
			Path:        "/api/v1/prompts/{id}/" + string(action),
			Summary:     interactionSummaries[action],
			Description: "Dispatches the interaction. The body always carries the outcome; the status reflects its kind.",
			Tags:        []string{"Interactions"},
			Security:    []map[string][]string{{"bearer": {}}, {"anonymous": {}}},
		}, s.handleInteraction(action))
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "getInteractionState",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}/interaction/{action}",
		Summary:     "Get toggle state",
		Description: "Returns the optimistic state of the caller's like or bookmark",
		Tags:        []string{"Interactions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetInteractionState)
}

var interactionSummaries = map[domain.ActionKind]string{
	domain.ActionCopy:     "Copy prompt",
	domain.ActionLike:     "Toggle like",
	domain.ActionBookmark: "Toggle bookmark",
}

// InteractionInput identifies the prompt and how copied text is delivered.
type InteractionInput struct {
	ID       string `path:"id" doc:"Prompt ID"`
	Delivery string `query:"delivery" enum:"response,stream" doc:"Where copied text goes: in the response or over the event stream"`
}

// InteractionOutput carries the outcome with a status matching its kind.
type InteractionOutput struct {
	Status int
	Body   *service.InteractionResult
}

// InteractionStateInput identifies one toggle.
type InteractionStateInput struct {
	ID     string `path:"id" doc:"Prompt ID"`
	Action string `path:"action" enum:"like,bookmark" doc:"Toggle action"`
}

// InteractionStateResponse is the optimistic view of one toggle.
type InteractionStateResponse struct {
	Phase      optimistic.Phase   `json:"phase" doc:"idle, pending, committed or rolled_back"`
	Generation uint64             `json:"generation" doc:"Counter of operations on this toggle"`
	State      domain.ToggleState `json:"state" doc:"Current value as set or unset"`
	Prior      bool               `json:"prior" doc:"Value before the latest operation"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// InteractionStateOutput wraps a toggle state for Huma.
type InteractionStateOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         InteractionStateResponse
}

func (s *Server) handleInteraction(action domain.ActionKind) func(context.Context, *InteractionInput) (*InteractionOutput, error) {
	return func(ctx context.Context, input *InteractionInput) (*InteractionOutput, error) {
		delivery, ok := clipboard.ParseDelivery(input.Delivery)
		if !ok {
			return nil, domainerrors.MalformedInputf("unknown delivery %q", input.Delivery)
		}
		result, err := s.services.Interaction.Perform(ctx, actorFrom(ctx), action, input.ID, delivery)
		if err != nil {
			return nil, err
		}
		return &InteractionOutput{Status: outcomeStatus(result.InteractionOutcome), Body: result}, nil
	}
}

func (s *Server) handleGetInteractionState(ctx context.Context, input *InteractionStateInput) (*InteractionStateOutput, error) {
	state, err := s.services.Interaction.State(actorFrom(ctx), domain.ActionKind(input.Action), input.ID)
	if err != nil {
		return nil, err
	}
	return &InteractionStateOutput{
		CacheControl: CacheNoStore,
		Body: InteractionStateResponse{
			Phase:      state.Phase,
			Generation: state.Generation,
			State:      state.ToggleState(),
			Prior:      state.Prior,
			UpdatedAt:  state.UpdatedAt,
		},
	}, nil
}

// outcomeStatus maps an outcome kind to its HTTP status.
func outcomeStatus(out domain.InteractionOutcome) int {
	switch out.Kind {
	case domain.OutcomeBlockedNeedsAuth:
		return http.StatusUnauthorized
	case domain.OutcomeBlockedQuotaExceeded:
		return http.StatusTooManyRequests
	case domain.OutcomeFailed:
		if out.Reason == domain.ReasonClipboardUnavailable {
			return http.StatusConflict
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}
