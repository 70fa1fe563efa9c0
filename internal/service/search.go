package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/browse"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/recent"
	"github.com/heyprompt/heyprompt-server/internal/search"
)

// SearchService runs relevance searches over published prompts.
type SearchService struct {
	prompts *PromptService
	index   *search.SearchIndex
	recent  *recent.Searches
	events  *analytics.Recorder
	logger  *slog.Logger
}

// NewSearchService creates a search service. index may be nil, in which case
// every search falls back to the browse text match.
func NewSearchService(
	prompts *PromptService,
	index *search.SearchIndex,
	recentSearches *recent.Searches,
	events *analytics.Recorder,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		prompts: prompts,
		index:   index,
		recent:  recentSearches,
		events:  events,
		logger:  logger,
	}
}

// SearchQuery is the search page state.
type SearchQuery struct {
	Query   string
	Filters domain.FilterState
	// Sort defaults to relevance when a query is present, popularity otherwise.
	Sort domain.SortKey
}

// SearchResponse holds the visible results of a search.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Total   int                    `json:"total"`
	Results []domain.PromptSummary `json:"results"`
	Recent  []string               `json:"recent_searches"`
}

// Search returns the prompts matching q, recording the query as a recent search of actor.
func (s *SearchService) Search(ctx context.Context, actor domain.Actor, q SearchQuery) (*SearchResponse, error) {
	text := strings.TrimSpace(q.Query)

	var (
		rows []domain.PromptSummary
		err  error
	)
	if text == "" {
		sortKey := q.Sort
		if sortKey == "" {
			sortKey = domain.SortPopularity
		}
		rows, err = s.prompts.Browse(ctx, actor.UserID, BrowseQuery{Filters: q.Filters, Sort: sortKey})
	} else {
		rows, err = s.relevance(ctx, actor.UserID, text, q)
	}
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{Query: text, Total: len(rows), Results: rows}
	if text != "" {
		resp.Recent = s.recent.Record(ctx, actor, text)
		if s.events != nil {
			s.events.Track(ctx, domain.AnalyticsEvent{
				Name:       domain.EventSearchPerformed,
				UserID:     actor.UserID,
				Properties: map[string]any{"query": text, "results": len(rows)},
			})
		}
	} else {
		resp.Recent = s.recent.List(ctx, actor)
	}
	return resp, nil
}

// relevance lists the index hits in relevance order, followed by the rows
// whose text contains q but that the index missed (word fragments such as
// "summ"). The structured filters and the sort then run over that list.
func (s *SearchService) relevance(ctx context.Context, viewerID, text string, q SearchQuery) ([]domain.PromptSummary, error) {
	sortKey := q.Sort
	if sortKey == "" {
		sortKey = domain.SortRelevance
	}
	opts := browse.Options{Now: s.prompts.now()}

	if s.index == nil {
		return s.prompts.Browse(ctx, viewerID, BrowseQuery{Query: text, Filters: q.Filters, Sort: sortKey})
	}

	result, err := s.index.Search(ctx, search.SearchParams{Query: text, Limit: search.MaxResults})
	if err != nil {
		s.logger.Warn("index search failed, falling back to text match", "query", text, "error", err)
		return s.prompts.Browse(ctx, viewerID, BrowseQuery{Query: text, Filters: q.Filters, Sort: sortKey})
	}

	all, err := s.prompts.ListSummaries(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	hits := result.IDs()
	rows := orderByIDs(all, hits)

	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.ID] = struct{}{}
	}
	for _, r := range browse.DeriveWithOptions(all, domain.FilterState{}, text, domain.SortRelevance, opts) {
		if _, ok := seen[r.ID]; !ok {
			rows = append(rows, r)
		}
	}
	return browse.DeriveWithOptions(rows, q.Filters, "", sortKey, opts), nil
}

// RecentSearches lists actor's recent queries, newest first.
func (s *SearchService) RecentSearches(ctx context.Context, actor domain.Actor) []string {
	return s.recent.List(ctx, actor)
}

// RemoveRecentSearch drops one query from actor's recent searches.
func (s *SearchService) RemoveRecentSearch(ctx context.Context, actor domain.Actor, query string) []string {
	return s.recent.Remove(ctx, actor, query)
}

// ClearRecentSearches forgets all of actor's recent searches.
func (s *SearchService) ClearRecentSearches(ctx context.Context, actor domain.Actor) {
	s.recent.Clear(ctx, actor)
}

// Reindex rebuilds the search index from the published prompts.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	rows, err := s.prompts.ListSummaries(ctx, "")
	if err != nil {
		return 0, err
	}
	docs := make([]*search.PromptDocument, len(rows))
	for i, r := range rows {
		docs[i] = search.DocumentFromSummary(r)
	}
	if err := s.index.Replace(docs); err != nil {
		return 0, fmt.Errorf("replace index: %w", err)
	}
	s.logger.Info("search index rebuilt", "documents", len(docs))
	return len(docs), nil
}

// IndexIfEmpty reindexes when the index holds no documents, as after a
// first boot or a mapping upgrade.
func (s *SearchService) IndexIfEmpty(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	n, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err = s.Reindex(ctx)
	return err
}

// ErrIndexDisabled is returned by DocumentCount when the server runs without an index.
var ErrIndexDisabled = errors.New("search index disabled")

// DocumentCount returns the number of indexed prompts.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s.index == nil {
		return 0, ErrIndexDisabled
	}
	return s.index.DocumentCount()
}
