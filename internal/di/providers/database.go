package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/kv"
	"github.com/heyprompt/heyprompt-server/internal/kv/badgerkv"
	"github.com/heyprompt/heyprompt-server/internal/kv/memkv"
	"github.com/heyprompt/heyprompt-server/internal/kv/rediskv"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
	"github.com/heyprompt/heyprompt-server/internal/sse"
	"github.com/heyprompt/heyprompt-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	var opts []sse.Option
	if m != nil {
		opts = append(opts, sse.WithClientCountHook(m.SetSSEClients))
	}
	manager := sse.NewManager(log.Logger, opts...)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the relational store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.SQLitePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// KVHandle wraps the configured key-value backend with shutdown capability.
type KVHandle struct {
	kv.Store
	closeFn func() error
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *KVHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	if h.closeFn == nil {
		return nil
	}
	return h.closeFn()
}

// ProvideKV provides the key-value store behind quotas, recent searches and analytics events.
func ProvideKV(i do.Injector) (*KVHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.KV.Backend {
	case config.KVBackendMemory:
		log.Warn("Using in-memory KV store, quotas reset on restart")
		return &KVHandle{Store: memkv.New()}, nil

	case config.KVBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rs, err := rediskv.New(ctx, rediskv.Options{
			Addr:     cfg.KV.RedisAddr,
			Password: cfg.KV.RedisPassword,
			DB:       cfg.KV.RedisDB,
			Prefix:   rediskv.DefaultPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("KV store initialized", "backend", "redis", "addr", cfg.KV.RedisAddr)
		return &KVHandle{Store: rs, closeFn: rs.Close}, nil

	default:
		path := cfg.BadgerPath()
		bs, err := badgerkv.Open(path, log.Logger)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithCancel(context.Background())
		go runBadgerGC(ctx, bs, log.Logger)
		log.Info("KV store initialized", "backend", "badger", "path", path)
		return &KVHandle{Store: bs, closeFn: bs.Close, cancel: cancel}, nil
	}
}

func runBadgerGC(ctx context.Context, bs *badgerkv.Store, log *slog.Logger) {
	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			bs.RunGC()
			log.Debug("Badger value log GC ran")
		case <-ctx.Done():
			return
		}
	}
}
