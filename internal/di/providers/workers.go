package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/jobs"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/optimistic"
	"github.com/heyprompt/heyprompt-server/internal/packs"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

// PackWatcherHandle wraps the prompt pack watcher with shutdown capability.
// Watcher is nil when no packs directory is configured.
type PackWatcherHandle struct {
	*packs.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *PackWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	return h.Watcher.Stop()
}

// ProvidePackWatcher imports the packs directory and watches it for changes.
func ProvidePackWatcher(i do.Injector) (*PackWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Packs.Path == "" {
		log.Info("No packs directory configured, pack import disabled")
		return &PackWatcherHandle{}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)

	importer := packs.NewImporter(storeHandle.Store, storeHandle.Store, log.Logger,
		packs.WithOnImport(func(ctx context.Context, r packs.Result) {
			if !r.Changed() {
				return
			}
			if _, err := searchService.Reindex(ctx); err != nil {
				log.Warn("Reindex after pack import failed", "pack_id", r.PackID, "error", err)
			}
		}),
	)

	w, err := packs.NewWatcher(cfg.Packs.Path, importer, log.Logger, cfg.Packs.SettleDelay)
	if err != nil {
		return nil, err
	}
	if err := w.Start(context.Background()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	log.Info("Pack watcher started", "path", cfg.Packs.Path)

	return &PackWatcherHandle{Watcher: w}, nil
}

// ProvideScheduler registers the maintenance jobs and starts the cron scheduler.
func ProvideScheduler(i do.Injector) (*jobs.Scheduler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	events := do.MustInvoke[*analytics.Recorder](i)
	ledger := do.MustInvoke[*optimistic.Ledger](i)

	loc, err := cfg.Quota.Location()
	if err != nil {
		return nil, err
	}

	s := jobs.NewScheduler(log.Logger, loc)
	m := jobs.Maintenance{
		Sessions: sessions,
		Search:   searchService,
		Events:   events,
		Ledger:   ledger,
		Logger:   log.Logger,
	}
	if err := m.Register(s); err != nil {
		return nil, err
	}
	s.Start()

	return s, nil
}
