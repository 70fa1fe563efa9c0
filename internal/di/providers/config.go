// Package providers contains dependency injection providers for the HeyPrompt server.
package providers

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting HeyPrompt Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"kv_backend", cfg.KV.Backend,
		"packs_path", cfg.Packs.Path,
	)

	return log, nil
}

// SentryHandle flushes buffered error reports on shutdown.
type SentryHandle struct {
	Enabled bool
}

// Shutdown implements do.Shutdownable.
func (h *SentryHandle) Shutdown() error {
	if h.Enabled {
		sentry.Flush(2 * time.Second)
	}
	return nil
}

// ProvideSentry initializes error reporting when a DSN is configured.
func ProvideSentry(i do.Injector) (*SentryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Observability.SentryDSN == "" {
		return &SentryHandle{}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Observability.SentryDSN,
		Environment: cfg.App.Environment,
		Release:     Version,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Sentry error reporting enabled")
	return &SentryHandle{Enabled: true}, nil
}

// ProvideMetrics provides the prometheus collectors, or nil when metrics are disabled.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Observability.MetricsEnabled {
		return nil, nil
	}
	return metrics.New(), nil
}
