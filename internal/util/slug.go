// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
)

var (
	// Matches spaces, underscores, dots and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_./]+`)
	// Matches non-alphanumeric characters (except dashes and plus signs).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9+-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// Slugify converts a tag or prompt name to a canonical slug.
// Tag identity within a tag type is the slug, so "GPT-4", "gpt 4" and "gpt_4" collide.
//
// Examples:
//
//	"GPT-4"          → "gpt-4"
//	"Claude 3.5"     → "claude-3-5"
//	"C++ Developers" → "c++-developers"
//	"🚀 Marketers!"  → "marketers"
//	"--leading--"    → "leading"
func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Truncate shortens s to at most n runes, appending an ellipsis when it cut something.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
