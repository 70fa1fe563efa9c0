package domain

// Comment is a signed-in user's remark on a prompt.
type Comment struct {
	Entity
	PromptID string `json:"prompt_id"`
	UserID   string `json:"user_id"`
	Content  string `json:"content"`
	Author   Author `json:"author"`
}

// Comment length bounds, in characters after trimming.
const (
	CommentMinLength = 1
	CommentMaxLength = 2000
)
