package domain

import "time"

// TagType separates the two tag vocabularies.
type TagType string

// Tag types.
const (
	// TagTypeCategory tags describe who a prompt is for ("Developers").
	TagTypeCategory TagType = "who_for"
	// TagTypeAIModel tags name the model a prompt targets ("Claude").
	TagTypeAIModel TagType = "ai_model"
)

// Valid reports whether t is a known tag type.
func (t TagType) Valid() bool {
	return t == TagTypeCategory || t == TagTypeAIModel
}

// Default vocabularies, in display order.
var (
	DefaultCategories = []string{"Developers", "Designers", "Marketers", "Writers", "Entrepreneurs"}
	DefaultAIModels   = []string{"GPT-4", "GPT-3.5", "Claude", "Gemini", "Llama"}
)

// Tag is a category or AI model label. Slug is unique within a type.
type Tag struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Type       TagType   `json:"type"`
	Color      string    `json:"color,omitempty"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// TagsByType groups tags the way pickers display them.
type TagsByType struct {
	Categories []Tag `json:"categories"`
	AIModels   []Tag `json:"ai_models"`
}

// GroupTags splits tags by type, preserving order.
func GroupTags(tags []Tag) TagsByType {
	out := TagsByType{Categories: []Tag{}, AIModels: []Tag{}}
	for _, t := range tags {
		switch t.Type {
		case TagTypeCategory:
			out.Categories = append(out.Categories, t)
		case TagTypeAIModel:
			out.AIModels = append(out.AIModels, t)
		}
	}
	return out
}
