// Package search provides full-text search over published prompts using Bleve.
package search

import (
	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// PromptDocument is the indexed form of a published prompt.
// Tag names are denormalized so one query covers text and vocabulary.
type PromptDocument struct {
	ID          string
	Title       string
	Description string
	Content     string
	Author      string
	Categories  []string
	AIModels    []string
	TokenUsage  string
	CreatedAt   int64 // Unix millis
}

// DocumentFromSummary builds a document from a prompt summary.
func DocumentFromSummary(s domain.PromptSummary) *PromptDocument {
	return &PromptDocument{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Content:     s.Content,
		Author:      s.Author.Username,
		Categories:  s.Categories,
		AIModels:    s.AIModels,
		TokenUsage:  string(s.TokenUsage),
		CreatedAt:   s.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map keyed by the field names of the mapping.
func (d *PromptDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"description": d.Description,
		"content":     d.Content,
		"token_usage": d.TokenUsage,
		"created_at":  d.CreatedAt,
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if len(d.Categories) > 0 {
		m["categories"] = d.Categories
	}
	if len(d.AIModels) > 0 {
		m["ai_models"] = d.AIModels
	}
	return m
}
