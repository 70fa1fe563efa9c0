package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchPrompts",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search prompts",
		Description: "Full-text search over published prompts, ranked by relevance unless another sort is given. The query is saved as a recent search of the caller.",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecentSearches",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/recent",
		Summary:     "Recent searches",
		Description: "Returns the caller's last five searches, newest first",
		Tags:        []string{"Search"},
	}, s.handleListRecentSearches)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearRecentSearches",
		Method:      http.MethodDelete,
		Path:        "/api/v1/search/recent",
		Summary:     "Clear recent searches",
		Tags:        []string{"Search"},
	}, s.handleClearRecentSearches)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeRecentSearch",
		Method:      http.MethodDelete,
		Path:        "/api/v1/search/recent/{query}",
		Summary:     "Remove recent search",
		Tags:        []string{"Search"},
	}, s.handleRemoveRecentSearch)
}

// SearchInput contains search parameters.
type SearchInput struct {
	Query string `query:"q" maxLength:"200" doc:"Search text"`
	FilterParams
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *service.SearchResponse
}

// RecentSearchesResponse lists recent queries.
type RecentSearchesResponse struct {
	Searches []string `json:"searches" doc:"Recent queries, newest first"`
}

// RecentSearchesOutput wraps recent searches for Huma.
type RecentSearchesOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         RecentSearchesResponse
}

// RecentSearchInput identifies one recent query.
type RecentSearchInput struct {
	Query string `path:"query" doc:"Query to forget"`
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	filters, err := input.filterState()
	if err != nil {
		return nil, err
	}
	resp, err := s.services.Search.Search(ctx, actorFrom(ctx), service.SearchQuery{
		Query:   input.Query,
		Filters: filters,
		Sort:    input.sortKey(),
	})
	if err != nil {
		return nil, err
	}
	resp.Results = nonNil(resp.Results)
	resp.Recent = nonNil(resp.Recent)
	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handleListRecentSearches(ctx context.Context, _ *struct{}) (*RecentSearchesOutput, error) {
	return recentOutput(s.services.Search.RecentSearches(ctx, actorFrom(ctx))), nil
}

func (s *Server) handleClearRecentSearches(ctx context.Context, _ *struct{}) (*RecentSearchesOutput, error) {
	s.services.Search.ClearRecentSearches(ctx, actorFrom(ctx))
	return recentOutput(nil), nil
}

func (s *Server) handleRemoveRecentSearch(ctx context.Context, input *RecentSearchInput) (*RecentSearchesOutput, error) {
	return recentOutput(s.services.Search.RemoveRecentSearch(ctx, actorFrom(ctx), input.Query)), nil
}

func recentOutput(searches []string) *RecentSearchesOutput {
	return &RecentSearchesOutput{
		CacheControl: CacheNoStore,
		Body:         RecentSearchesResponse{Searches: nonNil(searches)},
	}
}
