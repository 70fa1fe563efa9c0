package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/auth"
	"github.com/heyprompt/heyprompt-server/internal/interaction"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/quota"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	events := do.MustInvoke[*analytics.Recorder](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, events, log.Logger), nil
}

// ProvideTagService provides the tag service and seeds the default categories and models.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewTagService(storeHandle.Store, log.Logger)
	created, err := svc.EnsureDefaults(context.Background())
	if err != nil {
		return nil, err
	}
	if created > 0 {
		log.Info("Default tags created", "count", created)
	}
	return svc, nil
}

// ProvidePromptService provides the prompt catalog service.
func ProvidePromptService(i do.Injector) (*service.PromptService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	events := do.MustInvoke[*analytics.Recorder](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPromptService(storeHandle.Store, indexHandle.SearchIndex, sseHandle.Manager, events, log.Logger), nil
}

// ProvideInteractionService provides the copy, like and bookmark service.
func ProvideInteractionService(i do.Injector) (*service.InteractionService, error) {
	dispatcher := do.MustInvoke[*interaction.Dispatcher](i)
	tracker := do.MustInvoke[*quota.Tracker](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	events := do.MustInvoke[*analytics.Recorder](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInteractionService(dispatcher, tracker, sseHandle.Manager, events, log.Logger), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifier := do.MustInvoke[*notify.SSE](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, notifier, log.Logger), nil
}

// ProvideRatingService provides the rating service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifier := do.MustInvoke[*notify.SSE](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingService(storeHandle.Store, notifier, log.Logger), nil
}

// ProvideLibraryService provides the liked and bookmarked prompt lists.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	prompts := do.MustInvoke[*service.PromptService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, prompts, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	prompts := do.MustInvoke[*service.PromptService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, prompts, log.Logger), nil
}

// ProvideAdminService provides the admin service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	events := do.MustInvoke[*analytics.Recorder](i)
	notifier := do.MustInvoke[*notify.SSE](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, events, notifier, log.Logger), nil
}
