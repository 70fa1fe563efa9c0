package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/api"
	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	return errors.Join(err, h.api.Shutdown())
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	sentryHandle := do.MustInvoke[*SentryHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	services := &api.Services{
		Auth:        do.MustInvoke[*service.AuthService](i),
		Tag:         do.MustInvoke[*service.TagService](i),
		Prompt:      do.MustInvoke[*service.PromptService](i),
		Search:      do.MustInvoke[*service.SearchService](i),
		Interaction: do.MustInvoke[*service.InteractionService](i),
		Comment:     do.MustInvoke[*service.CommentService](i),
		Rating:      do.MustInvoke[*service.RatingService](i),
		Library:     do.MustInvoke[*service.LibraryService](i),
		Profile:     do.MustInvoke[*service.ProfileService](i),
		Admin:       do.MustInvoke[*service.AdminService](i),
		Events:      do.MustInvoke[*analytics.Recorder](i),
	}

	handler := api.NewServer(storeHandle.Store, services, sseHandle.Manager, m, api.Options{
		Version:        Version,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Sentry:         sentryHandle.Enabled,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "metrics", m != nil)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
