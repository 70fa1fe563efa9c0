// Package browse derives the visible prompt list of the browse and search pages.
//
// Derive is a pure function of its inputs. It runs every stage in a fixed
// order over the current working set, even when an earlier stage already
// emptied it, and never fails on well-typed input.
package browse

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"golang.org/x/text/cases"
)

// Options carries the inputs that would otherwise make Derive impure.
type Options struct {
	// Now anchors date range filters. Zero means time.Now().
	Now time.Time
}

// Derive filters and sorts rows. The input slice is never modified.
//
// Stages, in order:
//  1. text match on title, description or any category name (case-insensitive)
//  2. categories intersect filters.Categories
//  3. AI models intersect filters.AIModels
//  4. token usage bucket is one of filters.TokenUsage
//  5. rating is at least filters.MinRating, clamped to [0, 5]; unrated rows count as 0
//  6. creation date falls within filters.DateRange
//  7. stable sort by sortKey
//
// An empty dimension places no constraint.
func Derive(rows []domain.PromptSummary, filters domain.FilterState, searchText string, sortKey domain.SortKey) []domain.PromptSummary {
	return DeriveWithOptions(rows, filters, searchText, sortKey, Options{})
}

// DeriveWithOptions is Derive with an explicit reference time.
func DeriveWithOptions(rows []domain.PromptSummary, filters domain.FilterState, searchText string, sortKey domain.SortKey, opts Options) []domain.PromptSummary {
	out := make([]domain.PromptSummary, 0, len(rows))
	out = append(out, rows...)

	out = matchText(out, searchText)
	out = keepIntersecting(out, filters.Categories, func(p domain.PromptSummary) []string { return p.Categories })
	out = keepIntersecting(out, filters.AIModels, func(p domain.PromptSummary) []string { return p.AIModels })
	out = keepTokenUsage(out, filters.TokenUsage)
	out = keepMinRating(out, filters.MinRating)
	out = keepDateRange(out, filters.DateRange, opts.Now)

	Sort(out, sortKey)
	return out
}

func filter(rows []domain.PromptSummary, keep func(domain.PromptSummary) bool) []domain.PromptSummary {
	n := 0
	for _, r := range rows {
		if keep(r) {
			rows[n] = r
			n++
		}
	}
	clear(rows[n:])
	return rows[:n]
}

func matchText(rows []domain.PromptSummary, searchText string) []domain.PromptSummary {
	folder := cases.Fold()
	// Matched verbatim: surrounding spaces are part of the needle.
	needle := folder.String(searchText)
	if needle == "" {
		return rows
	}

	contains := func(s string) bool {
		return strings.Contains(folder.String(s), needle)
	}
	return filter(rows, func(p domain.PromptSummary) bool {
		return contains(p.Title) || contains(p.Description) || slices.ContainsFunc(p.Categories, contains)
	})
}

func keepIntersecting(rows []domain.PromptSummary, wanted []string, tags func(domain.PromptSummary) []string) []domain.PromptSummary {
	if len(wanted) == 0 {
		return rows
	}
	set := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		set[w] = struct{}{}
	}
	return filter(rows, func(p domain.PromptSummary) bool {
		for _, t := range tags(p) {
			if _, ok := set[t]; ok {
				return true
			}
		}
		return false
	})
}

func keepTokenUsage(rows []domain.PromptSummary, buckets []domain.TokenUsage) []domain.PromptSummary {
	if len(buckets) == 0 {
		return rows
	}
	return filter(rows, func(p domain.PromptSummary) bool {
		return slices.Contains(buckets, p.TokenUsage)
	})
}

// ClampRating bounds a rating floor to [0, 5]. NaN becomes 0.
func ClampRating(r float64) float64 {
	if math.IsNaN(r) {
		return 0
	}
	return min(max(r, 0), domain.MaxRatingValue)
}

func keepMinRating(rows []domain.PromptSummary, minRating float64) []domain.PromptSummary {
	floor := ClampRating(minRating)
	if floor == 0 {
		return rows
	}
	return filter(rows, func(p domain.PromptSummary) bool {
		return p.Rating >= floor
	})
}

// Since returns the earliest creation time admitted by a date range, or the zero time for no bound.
func Since(r domain.DateRange, now time.Time) time.Time {
	switch r {
	case domain.DateRangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case domain.DateRangeWeek:
		return now.AddDate(0, 0, -7)
	case domain.DateRangeMonth:
		return now.AddDate(0, -1, 0)
	default:
		return time.Time{}
	}
}

func keepDateRange(rows []domain.PromptSummary, r domain.DateRange, now time.Time) []domain.PromptSummary {
	if r == "" || r == domain.DateRangeAll {
		return rows
	}
	if now.IsZero() {
		now = time.Now()
	}
	since := Since(r, now)
	if since.IsZero() {
		return rows
	}
	return filter(rows, func(p domain.PromptSummary) bool {
		return !p.CreatedAt.Before(since)
	})
}

// Sort orders rows in place by key. Ties keep their relative order.
// Unknown keys sort by popularity. SortRelevance leaves rows untouched.
func Sort(rows []domain.PromptSummary, key domain.SortKey) {
	var less func(a, b domain.PromptSummary) bool
	switch key {
	case domain.SortRelevance:
		return
	case domain.SortRating:
		less = func(a, b domain.PromptSummary) bool { return a.Rating > b.Rating }
	case domain.SortNewest:
		less = func(a, b domain.PromptSummary) bool { return a.CreatedAt.After(b.CreatedAt) }
	case domain.SortSaves:
		less = func(a, b domain.PromptSummary) bool { return a.Saves > b.Saves }
	case domain.SortCopies:
		less = func(a, b domain.PromptSummary) bool { return a.Copies > b.Copies }
	default:
		less = func(a, b domain.PromptSummary) bool { return a.Popularity() > b.Popularity() }
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}
