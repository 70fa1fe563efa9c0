package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// MaxResults bounds a single search. The catalog is small enough that
// callers want every match rather than pages.
const MaxResults = 1000

// SearchParams configures a search query.
type SearchParams struct {
	Query string

	// Filters, OR within a dimension and AND across dimensions.
	Categories []string
	AIModels   []string
	TokenUsage []string

	Limit  int
	Offset int

	IncludeFacets bool
	Highlight     bool
}

// SearchResult holds hits in relevance order.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets,omitzero"`
}

// SearchHit is one matching prompt.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchFacets counts matches per tag.
type SearchFacets struct {
	Categories []FacetCount `json:"categories,omitempty"`
	AIModels   []FacetCount `json:"ai_models,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// IDs returns the hit ids in order.
func (r *SearchResult) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score", "-created_at"})
	searchRequest.Fields = []string{"title"}

	if params.IncludeFacets {
		searchRequest.AddFacet("categories", bleve.NewFacetRequest("categories", 20))
		searchRequest.AddFacet("ai_models", bleve.NewFacetRequest("ai_models", 20))
	}
	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("description")
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}
	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{ID: hit.ID, Score: hit.Score}
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, searchHit)
	}

	if params.IncludeFacets {
		result.Facets = SearchFacets{
			Categories: facetCounts(searchResult, "categories"),
			AIModels:   facetCounts(searchResult, "ai_models"),
		}
	}
	return result, nil
}

// buildSearchQuery matches the text against title, description, content and
// tag names, then ANDs the keyword filters.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if params.Query != "" {
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(1.5)

		contentMatch := bleve.NewMatchQuery(params.Query)
		contentMatch.SetField("content")
		contentMatch.SetBoost(0.5)

		// Typo tolerance on titles.
		fuzzy := bleve.NewMatchQuery(params.Query)
		fuzzy.SetField("title")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, descMatch, contentMatch, fuzzy}
		for _, field := range []string{"categories", "ai_models"} {
			tq := bleve.NewTermQuery(params.Query)
			tq.SetField(field)
			textQueries = append(textQueries, tq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	queries = appendTermFilter(queries, "categories", params.Categories)
	queries = appendTermFilter(queries, "ai_models", params.AIModels)
	queries = appendTermFilter(queries, "token_usage", params.TokenUsage)

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func appendTermFilter(queries []query.Query, field string, values []string) []query.Query {
	if len(values) == 0 {
		return queries
	}
	terms := make([]query.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		terms[i] = tq
	}
	return append(queries, bleve.NewDisjunctionQuery(terms...))
}

func facetCounts(result *bleve.SearchResult, field string) []FacetCount {
	facet, ok := result.Facets[field]
	if !ok || facet.Terms == nil {
		return nil
	}
	var out []FacetCount
	for _, term := range facet.Terms.Terms() {
		out = append(out, FacetCount{Value: term.Term, Count: term.Count})
	}
	return out
}
