package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the category and AI model vocabularies in display order",
		Tags:        []string{"Tags"},
	}, s.handleListTags)
}

// TagsOutput wraps the tag vocabularies for Huma.
type TagsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         domain.TagsByType
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*TagsOutput, error) {
	tags, err := s.services.Tag.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return &TagsOutput{CacheControl: CacheShortPublic, Body: tags}, nil
}
