// Package quota tracks the daily copy allowance of anonymous visitors.
//
// Each anonymous device has a UsageQuota stored in the kv port. The counter
// resets lazily: the first read on a new local date replaces it with a fresh
// quota and persists that before returning. There is no background timer.
//
// Storage is best effort. When the kv store fails, the tracker degrades to
// "always allow" and says so through Degraded and the logs.
package quota

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/keylock"
	"github.com/heyprompt/heyprompt-server/internal/kv"
)

// DefaultDailyLimit is the number of copies an anonymous visitor gets per day.
const DefaultDailyLimit = 3

// KeyPrefix namespaces quota records in the kv store.
const KeyPrefix = "anonymous_limits:"

// recordTTL lets records of visitors who never come back expire.
const recordTTL = 48 * time.Hour

// Options configures a Tracker.
type Options struct {
	Store      kv.Store
	DailyLimit int
	Location   *time.Location
	Now        func() time.Time
	Logger     *slog.Logger
}

// Tracker owns the quota records of every anonymous device.
type Tracker struct {
	store    kv.Store
	limit    int
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
	locks    *keylock.Map
	degraded atomic.Bool
}

// New creates a tracker.
func New(opts Options) *Tracker {
	t := &Tracker{
		store:  opts.Store,
		limit:  opts.DailyLimit,
		loc:    opts.Location,
		now:    opts.Now,
		logger: opts.Logger,
		locks:  keylock.New(),
	}
	if t.limit <= 0 {
		t.limit = DefaultDailyLimit
	}
	if t.loc == nil {
		t.loc = time.Local
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// DailyLimit returns the configured allowance.
func (t *Tracker) DailyLimit() int { return t.limit }

// Degraded reports whether the last storage access failed.
func (t *Tracker) Degraded() bool { return t.degraded.Load() }

// For returns the quota of one anonymous device.
func (t *Tracker) For(deviceID string) *Device {
	return &Device{t: t, id: deviceID}
}

func (t *Tracker) today() string {
	return t.now().In(t.loc).Format(domain.DateLayout)
}

// Device is one anonymous visitor's view of the tracker.
type Device struct {
	t  *Tracker
	id string
}

// ID returns the device identifier.
func (d *Device) ID() string { return d.id }

func (d *Device) key() string { return KeyPrefix + d.id }

func (d *Device) lock(ctx context.Context) func() {
	// Quota operations are short. They finish even if the request goes away
	// so a half-written record is never left behind.
	unlock, err := d.t.locks.Lock(context.WithoutCancel(ctx), d.id)
	if err != nil {
		return func() {}
	}
	return unlock
}

// load reads the stored quota, resetting it when the date changed.
// ok is false when storage is unavailable.
func (d *Device) load(ctx context.Context) (q domain.UsageQuota, ok bool) {
	today := d.t.today()

	err := kv.GetJSON(ctx, d.t.store, d.key(), &q)
	var decodeErr *kv.DecodeError
	switch {
	case err == nil:
		if q.ResetDate == today && q.Count >= 0 {
			d.t.degraded.Store(false)
			return q, true
		}
	case errors.Is(err, kv.ErrNotFound):
	case errors.As(err, &decodeErr):
		d.t.logger.Warn("Discarding unreadable anonymous quota", "device_id", d.id, "error", err)
	default:
		d.t.degraded.Store(true)
		d.t.logger.Warn("Anonymous quota storage unavailable, allowing", "device_id", d.id, "error", err)
		return domain.UsageQuota{ResetDate: today}, false
	}

	fresh := domain.UsageQuota{Count: 0, ResetDate: today}
	if err := d.persist(ctx, fresh); err != nil {
		return fresh, false
	}
	return fresh, true
}

func (d *Device) persist(ctx context.Context, q domain.UsageQuota) error {
	if err := kv.SetJSON(ctx, d.t.store, d.key(), q, recordTTL); err != nil {
		d.t.degraded.Store(true)
		d.t.logger.Warn("Failed to persist anonymous quota, allowing", "device_id", d.id, "error", err)
		return err
	}
	d.t.degraded.Store(false)
	return nil
}

// GetQuota returns today's quota. A record from an earlier date is replaced by
// {0, today} and persisted before returning.
func (d *Device) GetQuota(ctx context.Context) domain.UsageQuota {
	defer d.lock(ctx)()
	q, _ := d.load(ctx)
	return q
}

// Remaining returns max(0, limit-count). Unavailable storage reports the full limit.
func (d *Device) Remaining(ctx context.Context) int {
	defer d.lock(ctx)()
	q, ok := d.load(ctx)
	if !ok {
		return d.t.limit
	}
	return max(0, d.t.limit-q.Count)
}

// CanConsume reports whether count < limit. Unavailable storage always allows.
func (d *Device) CanConsume(ctx context.Context) bool {
	defer d.lock(ctx)()
	q, ok := d.load(ctx)
	if !ok {
		return true
	}
	return q.Count < d.t.limit
}

// Consume records one copy. It does not check the limit: callers check
// CanConsume first and decide how to tell the visitor they are out.
// With unavailable storage this is a logged no-op.
func (d *Device) Consume(ctx context.Context) {
	defer d.lock(ctx)()
	q, ok := d.load(ctx)
	if !ok {
		d.t.logger.Warn("Skipping anonymous quota increment", "device_id", d.id)
		return
	}
	q.Count++
	_ = d.persist(ctx, q)
}

// Status returns the quota with its limit and remaining count.
func (d *Device) Status(ctx context.Context) domain.QuotaStatus {
	defer d.lock(ctx)()
	q, ok := d.load(ctx)
	remaining := max(0, d.t.limit-q.Count)
	if !ok {
		remaining = d.t.limit
	}
	return domain.QuotaStatus{
		UsageQuota: q,
		Limit:      d.t.limit,
		Remaining:  remaining,
		Degraded:   !ok,
	}
}

// Reset clears the device record. The next read starts a fresh day.
func (d *Device) Reset(ctx context.Context) error {
	defer d.lock(ctx)()
	return d.t.store.Clear(ctx, d.key())
}
