package api

import (
	"strings"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
)

// FilterParams are the filter query parameters shared by browse and search.
type FilterParams struct {
	Categories []string `query:"categories" doc:"Category names; a prompt matches if it has any of them"`
	Models     []string `query:"models" doc:"AI model names; a prompt matches if it has any of them"`
	TokenUsage []string `query:"token_usage" doc:"Token usage buckets: low, medium, high"`
	MinRating  float64  `query:"min_rating" doc:"Minimum average rating, clamped to 0..5"`
	DateRange  string   `query:"date_range" doc:"all, today, week or month"`
	Sort       string   `query:"sort" doc:"popularity, rating, newest, saves, copies or relevance"`
}

// filterState converts the parameters. Unknown token usage buckets are rejected.
func (p FilterParams) filterState() (domain.FilterState, error) {
	fs := domain.FilterState{
		Categories: compact(p.Categories),
		AIModels:   compact(p.Models),
		MinRating:  p.MinRating,
		DateRange:  domain.ParseDateRange(p.DateRange),
	}
	for _, raw := range compact(p.TokenUsage) {
		usage, ok := domain.ParseTokenUsage(raw)
		if !ok {
			return domain.FilterState{}, domainerrors.MalformedInputf("unknown token usage %q", raw)
		}
		fs.TokenUsage = append(fs.TokenUsage, usage)
	}
	return fs, nil
}

// sortKey returns the requested sort, or "" to let the service choose.
func (p FilterParams) sortKey() domain.SortKey {
	if strings.TrimSpace(p.Sort) == "" {
		return ""
	}
	return domain.ParseSortKey(p.Sort)
}

// compact trims values and drops empty ones.
func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
