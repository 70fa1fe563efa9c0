package quota

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/kv"
	"github.com/heyprompt/heyprompt-server/internal/kv/memkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTracker(t *testing.T, store kv.Store, at time.Time) (*Tracker, *clock) {
	t.Helper()
	c := &clock{now: at}
	tr := New(Options{
		Store:    store,
		Location: time.UTC,
		Now:      c.Now,
		Logger:   slog.New(slog.DiscardHandler),
	})
	return tr, c
}

func TestGetQuota_ResetsOnNewDay(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	require.NoError(t, kv.SetJSON(ctx, store, KeyPrefix+"d1", domain.UsageQuota{Count: 3, ResetDate: "2024-01-01"}, 0))

	tr, _ := newTracker(t, store, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))

	q := tr.For("d1").GetQuota(ctx)
	assert.Equal(t, domain.UsageQuota{Count: 0, ResetDate: "2024-01-02"}, q)

	// The reset is persisted before returning.
	var stored domain.UsageQuota
	require.NoError(t, kv.GetJSON(ctx, store, KeyPrefix+"d1", &stored))
	assert.Equal(t, q, stored)
}

func TestGetQuota_SameDayKeepsCount(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	require.NoError(t, kv.SetJSON(ctx, store, KeyPrefix+"d1", domain.UsageQuota{Count: 2, ResetDate: "2024-01-02"}, 0))

	tr, _ := newTracker(t, store, time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, 2, tr.For("d1").GetQuota(ctx).Count)
}

func TestGetQuota_UsesConfiguredZone(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	tokyo := time.FixedZone("JST", 9*60*60)

	c := &clock{now: time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)}
	tr := New(Options{Store: store, Location: tokyo, Now: c.Now, Logger: slog.New(slog.DiscardHandler)})

	// 20:00 UTC is already the next morning in Tokyo.
	assert.Equal(t, "2024-01-02", tr.For("d1").GetQuota(ctx).ResetDate)
}

func TestEnforcement_ThreeThenBlocked(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, memkv.New(), time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	dev := tr.For("d1")

	for i := range DefaultDailyLimit {
		require.True(t, dev.CanConsume(ctx), "copy %d", i+1)
		dev.Consume(ctx)
	}

	assert.False(t, dev.CanConsume(ctx))
	assert.Equal(t, 0, dev.Remaining(ctx))
	assert.Equal(t, 3, dev.GetQuota(ctx).Count)
}

func TestConsume_DoesNotEnforceLimit(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, memkv.New(), time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	dev := tr.For("d1")

	for range 5 {
		dev.Consume(ctx)
	}
	assert.Equal(t, 5, dev.GetQuota(ctx).Count)
	assert.Equal(t, 0, dev.Remaining(ctx))
}

func TestQuota_ResetsAtMidnight(t *testing.T) {
	ctx := context.Background()
	tr, c := newTracker(t, memkv.New(), time.Date(2024, 1, 2, 23, 58, 0, 0, time.UTC))
	dev := tr.For("d1")

	for range 3 {
		dev.Consume(ctx)
	}
	require.False(t, dev.CanConsume(ctx))

	c.Set(time.Date(2024, 1, 3, 0, 0, 1, 0, time.UTC))
	assert.True(t, dev.CanConsume(ctx))
	assert.Equal(t, 3, dev.Remaining(ctx))
}

func TestDevicesAreIndependent(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, memkv.New(), time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))

	for range 3 {
		tr.For("d1").Consume(ctx)
	}
	assert.False(t, tr.For("d1").CanConsume(ctx))
	assert.True(t, tr.For("d2").CanConsume(ctx))
}

func TestUnavailableStorage_AlwaysAllows(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, memkv.Failing{Err: errors.New("disk full")}, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	dev := tr.For("d1")

	for range 10 {
		assert.True(t, dev.CanConsume(ctx))
		dev.Consume(ctx)
	}
	assert.Equal(t, DefaultDailyLimit, dev.Remaining(ctx))
	assert.True(t, tr.Degraded())

	status := dev.Status(ctx)
	assert.True(t, status.Degraded)
	assert.Equal(t, DefaultDailyLimit, status.Remaining)
	assert.Equal(t, "2024-01-02", status.ResetDate)
}

type flakyStore struct {
	*memkv.Store
	failSets bool
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.failSets {
		return errors.New("read-only")
	}
	return f.Store.Set(ctx, key, value, ttl)
}

func TestUnavailableWrites_DegradeAndRecover(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memkv.New(), failSets: true}
	tr, _ := newTracker(t, store, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	dev := tr.For("d1")

	assert.True(t, dev.CanConsume(ctx))
	assert.True(t, tr.Degraded())

	store.failSets = false
	dev.Consume(ctx)
	assert.False(t, tr.Degraded())
	assert.Equal(t, 1, dev.GetQuota(ctx).Count)
}

func TestUnreadableRecord_IsReplaced(t *testing.T) {
	ctx := context.Background()
	store := memkv.New()
	require.NoError(t, store.Set(ctx, KeyPrefix+"d1", []byte("{garbage"), 0))

	tr, _ := newTracker(t, store, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	q := tr.For("d1").GetQuota(ctx)

	assert.Equal(t, domain.UsageQuota{Count: 0, ResetDate: "2024-01-02"}, q)
	assert.False(t, tr.Degraded())
}

func TestConcurrentConsume_CountsEveryCall(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, memkv.New(), time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	dev := tr.For("d1")

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dev.Consume(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, dev.GetQuota(ctx).Count)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, memkv.New(), time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	dev := tr.For("d1")

	dev.Consume(ctx)
	require.NoError(t, dev.Reset(ctx))
	assert.Equal(t, 0, dev.GetQuota(ctx).Count)
}
