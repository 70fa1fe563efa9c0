package providers

import (
	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/interaction"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/optimistic"
	"github.com/heyprompt/heyprompt-server/internal/quota"
	"github.com/heyprompt/heyprompt-server/internal/store/sqlite"
)

// ProvideNotifier provides the toast notifier backed by the event streams.
func ProvideNotifier(i do.Injector) (*notify.SSE, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	return notify.NewSSE(sseHandle.Manager), nil
}

// ProvideAnalyticsRecorder provides the analytics event recorder.
func ProvideAnalyticsRecorder(i do.Injector) (*analytics.Recorder, error) {
	kvHandle := do.MustInvoke[*KVHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return analytics.NewRecorder(kvHandle.Store, m, log.Logger), nil
}

// ProvideQuotaTracker provides the anonymous copy quota tracker.
func ProvideQuotaTracker(i do.Injector) (*quota.Tracker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	kvHandle := do.MustInvoke[*KVHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	loc, err := cfg.Quota.Location()
	if err != nil {
		return nil, err
	}

	log.Info("Anonymous copy quota configured",
		"daily_limit", cfg.Quota.DailyLimit,
		"time_zone", loc.String(),
	)

	return quota.New(quota.Options{
		Store:      kvHandle.Store,
		DailyLimit: cfg.Quota.DailyLimit,
		Location:   loc,
		Logger:     log.Logger,
	}), nil
}

// ProvideLedger provides the optimistic toggle ledger, publishing transitions to event streams.
func ProvideLedger(i do.Injector) (*optimistic.Ledger, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	return optimistic.NewLedger(optimistic.WithPublisher(optimistic.SSEPublisher{Manager: sseHandle.Manager})), nil
}

// ProvideDispatcher provides the interaction dispatcher.
func ProvideDispatcher(i do.Injector) (*interaction.Dispatcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tracker := do.MustInvoke[*quota.Tracker](i)
	notifier := do.MustInvoke[*notify.SSE](i)
	ledger := do.MustInvoke[*optimistic.Ledger](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return interaction.New(interaction.Options{
		Content:  storeHandle.Store,
		Toggles:  storeHandle.Store,
		Quota:    tracker,
		Notifier: notifier,
		Ledger:   ledger,
		Metrics:  m,
		Logger:   log.Logger,
		Retry: interaction.RetryPolicy{
			Attempts: uint(cfg.Dispatch.RetryAttempts),
			Delay:    cfg.Dispatch.RetryDelay,
			MaxDelay: cfg.Dispatch.RetryMaxDelay,
		},
		IsTransient: sqlite.IsTransient,
	}), nil
}
