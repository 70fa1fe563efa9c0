package domain

// Rating bounds.
const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// Rating is one user's star rating of a prompt, unique per (user, prompt).
type Rating struct {
	Entity
	PromptID string `json:"prompt_id"`
	UserID   string `json:"user_id"`
	Value    int    `json:"rating"`
}

// RatingSummary aggregates the ratings of one prompt.
// Distribution[i] counts ratings of i+1 stars.
type RatingSummary struct {
	PromptID     string  `json:"prompt_id"`
	Average      float64 `json:"average"`
	Count        int     `json:"count"`
	Distribution [5]int  `json:"distribution"`
	UserRating   int     `json:"user_rating,omitempty"`
}

// Add folds one rating value into the summary.
func (s *RatingSummary) Add(value int) {
	if value < MinRatingValue || value > MaxRatingValue {
		return
	}
	total := s.Average*float64(s.Count) + float64(value)
	s.Count++
	s.Distribution[value-1]++
	s.Average = total / float64(s.Count)
}
