package api

import (
	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Auth        *service.AuthService
	Tag         *service.TagService
	Prompt      *service.PromptService
	Search      *service.SearchService
	Interaction *service.InteractionService
	Comment     *service.CommentService
	Rating      *service.RatingService
	Library     *service.LibraryService
	Profile     *service.ProfileService
	Admin       *service.AdminService
	Events      *analytics.Recorder // may be nil
}
