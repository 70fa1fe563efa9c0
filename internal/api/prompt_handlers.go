package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

func (s *Server) registerPromptRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "browsePrompts",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts",
		Summary:     "Browse prompts",
		Description: "Filters and sorts the published prompts. q matches titles, descriptions and category names.",
		Tags:        []string{"Prompts"},
	}, s.handleBrowsePrompts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPrompt",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Get prompt",
		Description: "Returns one prompt and counts the view. Drafts are visible to their author and admins.",
		Tags:        []string{"Prompts"},
	}, s.handleGetPrompt)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitPrompt",
		Method:        http.MethodPost,
		Path:          "/api/v1/prompts",
		Summary:       "Submit prompt",
		Description:   "Creates a prompt. It stays a draft unless publish is true.",
		Tags:          []string{"Prompts"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitPrompt)
}

// BrowseInput contains parameters for browsing prompts.
type BrowseInput struct {
	Query string `query:"q" doc:"Text to match"`
	FilterParams
}

// PromptListResponse is a page of prompt summaries.
type PromptListResponse struct {
	Total   int                    `json:"total" doc:"Number of matching prompts"`
	Prompts []domain.PromptSummary `json:"prompts" doc:"Matching prompts in display order"`
}

// PromptListOutput wraps a prompt list for Huma.
type PromptListOutput struct {
	Body PromptListResponse
}

// PromptIDInput identifies a prompt.
type PromptIDInput struct {
	ID string `path:"id" doc:"Prompt ID"`
}

// PromptOutput wraps a prompt summary for Huma.
type PromptOutput struct {
	Body *domain.PromptSummary
}

// SubmitPromptInput wraps a submission for Huma.
type SubmitPromptInput struct {
	Body service.SubmitPromptRequest
}

func (s *Server) handleBrowsePrompts(ctx context.Context, input *BrowseInput) (*PromptListOutput, error) {
	filters, err := input.filterState()
	if err != nil {
		return nil, err
	}
	rows, err := s.services.Prompt.Browse(ctx, viewerFrom(ctx).UserID, service.BrowseQuery{
		Query:   input.Query,
		Filters: filters,
		Sort:    domain.ParseSortKey(input.Sort),
	})
	if err != nil {
		return nil, err
	}
	return &PromptListOutput{Body: PromptListResponse{Total: len(rows), Prompts: nonNil(rows)}}, nil
}

func (s *Server) handleGetPrompt(ctx context.Context, input *PromptIDInput) (*PromptOutput, error) {
	v := viewerFrom(ctx)
	summary, err := s.services.Prompt.GetPrompt(ctx, input.ID, v.UserID, v.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &PromptOutput{Body: summary}, nil
}

func (s *Server) handleSubmitPrompt(ctx context.Context, input *SubmitPromptInput) (*PromptOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.services.Prompt.SubmitPrompt(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PromptOutput{Body: summary}, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
