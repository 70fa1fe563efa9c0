package domain

import "strings"

// DateRange limits results by creation time.
type DateRange string

// Date ranges.
const (
	DateRangeAll   DateRange = "all"
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
)

// ParseDateRange normalizes input. Unknown values mean no constraint.
func ParseDateRange(s string) DateRange {
	switch d := DateRange(strings.ToLower(strings.TrimSpace(s))); d {
	case DateRangeToday, DateRangeWeek, DateRangeMonth:
		return d
	default:
		return DateRangeAll
	}
}

// FilterState holds every filter dimension of the browse and search pages.
// An empty value for a dimension means "no constraint on that dimension".
type FilterState struct {
	Categories []string     `json:"categories,omitempty"`
	AIModels   []string     `json:"ai_models,omitempty"`
	TokenUsage []TokenUsage `json:"token_usage,omitempty"`
	MinRating  float64      `json:"min_rating,omitempty"`
	DateRange  DateRange    `json:"date_range,omitempty"`
}

// SortKey selects the result ordering.
type SortKey string

// Sort keys.
const (
	SortPopularity SortKey = "popularity"
	SortRating     SortKey = "rating"
	SortNewest     SortKey = "newest"
	SortSaves      SortKey = "saves"
	SortCopies     SortKey = "copies"
	// SortRelevance keeps the incoming order, which is search relevance when rows come from the index.
	SortRelevance SortKey = "relevance"
)

// ParseSortKey normalizes input. Unknown values fall back to popularity.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortRating, SortNewest, SortSaves, SortCopies, SortRelevance, SortPopularity:
		return k
	case "popular":
		return SortPopularity
	default:
		return SortPopularity
	}
}
