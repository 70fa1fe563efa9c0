// Package di provides dependency injection configuration for the HeyPrompt server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/auth"
	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/di/providers"
	"github.com/heyprompt/heyprompt-server/internal/interaction"
	"github.com/heyprompt/heyprompt-server/internal/jobs"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/optimistic"
	"github.com/heyprompt/heyprompt-server/internal/quota"
	"github.com/heyprompt/heyprompt-server/internal/recent"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSentry)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideKV)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideRecentSearches)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Interaction pipeline
	do.Provide(injector, providers.ProvideNotifier)
	do.Provide(injector, providers.ProvideAnalyticsRecorder)
	do.Provide(injector, providers.ProvideQuotaTracker)
	do.Provide(injector, providers.ProvideLedger)
	do.Provide(injector, providers.ProvideDispatcher)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvidePromptService)
	do.Provide(injector, providers.ProvideInteractionService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvideRatingService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideAdminService)

	// Workers
	do.Provide(injector, providers.ProvidePackWatcher)
	do.Provide(injector, providers.ProvideScheduler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SentryHandle](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.KVHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*recent.Searches](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	_ = do.MustInvoke[*notify.SSE](injector)
	_ = do.MustInvoke[*analytics.Recorder](injector)
	_ = do.MustInvoke[*quota.Tracker](injector)
	_ = do.MustInvoke[*optimistic.Ledger](injector)
	_ = do.MustInvoke[*interaction.Dispatcher](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.PromptService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*service.InteractionService](injector)
	_ = do.MustInvoke[*service.CommentService](injector)
	_ = do.MustInvoke[*service.RatingService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.AdminService](injector)

	// Workers. The pack watcher imports existing packs before returning.
	_ = do.MustInvoke[*providers.PackWatcherHandle](injector)
	_ = do.MustInvoke[*jobs.Scheduler](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
