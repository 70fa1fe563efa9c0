package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "Get library",
		Description: "Returns the prompts the caller bookmarked or liked, most recent first",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLibrary)
}

// LibraryInput selects the library shelf.
type LibraryInput struct {
	Type string `query:"type" default:"bookmark" doc:"bookmark or like (saved and liked are accepted)"`
}

// LibraryOutput wraps library prompts for Huma.
type LibraryOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         PromptListResponse
}

func (s *Server) handleGetLibrary(ctx context.Context, input *LibraryInput) (*LibraryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := service.ParseLibraryKind(input.Type)
	if err != nil {
		return nil, err
	}
	prompts, err := s.services.Library.Library(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return &LibraryOutput{
		CacheControl: CacheShortPrivate,
		Body:         PromptListResponse{Total: len(prompts), Prompts: nonNil(prompts)},
	}, nil
}
