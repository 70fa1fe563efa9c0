package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRatings",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}/ratings",
		Summary:     "Get ratings",
		Description: "Returns the rating summary of a prompt, including the caller's own rating when signed in",
		Tags:        []string{"Social"},
	}, s.handleGetRatings)

	huma.Register(s.api, huma.Operation{
		OperationID: "ratePrompt",
		Method:      http.MethodPut,
		Path:        "/api/v1/prompts/{id}/ratings",
		Summary:     "Rate prompt",
		Description: "Sets the caller's 1 to 5 star rating, replacing any earlier one",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRatePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}/comments",
		Summary:     "List comments",
		Description: "Returns the comments on a prompt, oldest first",
		Tags:        []string{"Social"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/prompts/{id}/comments",
		Summary:       "Add comment",
		Tags:          []string{"Social"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Edit comment",
		Description: "Only the author can edit a comment",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete comment",
		Description: "Only the author can delete a comment",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteComment)
}

// RatingOutput wraps a rating summary for Huma.
type RatingOutput struct {
	Body *domain.RatingSummary
}

// RateInput sets a rating.
type RateInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body struct {
		Rating int `json:"rating" minimum:"1" maximum:"5" doc:"Stars"`
	}
}

// CommentsResponse lists comments.
type CommentsResponse struct {
	Comments []*domain.Comment `json:"comments"`
}

// CommentsOutput wraps a comment list for Huma.
type CommentsOutput struct {
	Body CommentsResponse
}

// CommentBody is the text of a comment.
type CommentBody struct {
	Content string `json:"content" minLength:"1" maxLength:"2000" doc:"Comment text"`
}

// CreateCommentInput adds a comment to a prompt.
type CreateCommentInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body CommentBody
}

// CommentIDInput identifies a comment.
type CommentIDInput struct {
	ID string `path:"id" doc:"Comment ID"`
}

// UpdateCommentInput edits a comment.
type UpdateCommentInput struct {
	ID   string `path:"id" doc:"Comment ID"`
	Body CommentBody
}

// CommentOutput wraps one comment for Huma.
type CommentOutput struct {
	Body *domain.Comment
}

func (s *Server) handleGetRatings(ctx context.Context, input *PromptIDInput) (*RatingOutput, error) {
	summary, err := s.services.Rating.Summary(ctx, input.ID, viewerFrom(ctx).UserID)
	if err != nil {
		return nil, err
	}
	return &RatingOutput{Body: summary}, nil
}

func (s *Server) handleRatePrompt(ctx context.Context, input *RateInput) (*RatingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.services.Rating.Rate(ctx, userID, input.ID, input.Body.Rating)
	if err != nil {
		return nil, err
	}
	return &RatingOutput{Body: summary}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *PromptIDInput) (*CommentsOutput, error) {
	comments, err := s.services.Comment.List(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CommentsOutput{Body: CommentsResponse{Comments: nonNil(comments)}}, nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.services.Comment.Create(ctx, userID, input.ID, input.Body.Content)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.services.Comment.Update(ctx, userID, input.ID, input.Body.Content)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Comment.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Comment deleted"}}, nil
}
