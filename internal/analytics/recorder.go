// Package analytics records product events in a bounded buffer in the KV store.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/keylock"
	"github.com/heyprompt/heyprompt-server/internal/kv"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
)

// BufferKey is where events are kept.
const BufferKey = "analytics_events"

// DefaultCapacity is the number of events retained.
const DefaultCapacity = 100

type dntKey struct{}

// WithDoNotTrack marks ctx as belonging to a visitor who opted out.
func WithDoNotTrack(ctx context.Context, dnt bool) context.Context {
	return context.WithValue(ctx, dntKey{}, dnt)
}

// DoNotTrack reports whether ctx carries an opt-out.
func DoNotTrack(ctx context.Context) bool {
	dnt, _ := ctx.Value(dntKey{}).(bool)
	return dnt
}

// Recorder appends events to the buffer.
type Recorder struct {
	store    kv.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	capacity int
	now      func() time.Time
	lock     *keylock.Map
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a recorder. m may be nil.
func NewRecorder(store kv.Store, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:    store,
		metrics:  m,
		logger:   logger,
		capacity: DefaultCapacity,
		now:      time.Now,
		lock:     keylock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track stamps and stores e. Opted-out contexts and unknown event names are ignored.
// Storage failures are logged; tracking never fails the caller.
func (r *Recorder) Track(ctx context.Context, e domain.AnalyticsEvent) bool {
	if DoNotTrack(ctx) || !e.Name.Valid() {
		return false
	}
	if e.ID == "" {
		eventID, err := id.Generate("evt")
		if err != nil {
			r.logger.Warn("Failed to generate event id", "error", err)
			return false
		}
		e.ID = eventID
	}
	e.Timestamp = r.now()

	r.metrics.RecordEvent(string(e.Name))

	err := r.modify(ctx, func(events []domain.AnalyticsEvent) []domain.AnalyticsEvent {
		return append(events, e)
	})
	if err != nil {
		r.logger.Warn("Failed to store analytics event", "event", e.Name, "error", err)
	}
	return true
}

// Recent returns up to limit events, newest first. A non-positive limit returns all.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]domain.AnalyticsEvent, error) {
	events, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AnalyticsEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Counts tallies buffered events by name.
func (r *Recorder) Counts(ctx context.Context) (map[domain.EventName]int, error) {
	events, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.EventName]int)
	for _, e := range events {
		counts[e.Name]++
	}
	return counts, nil
}

// Trim drops the oldest events beyond capacity and returns how many were removed.
func (r *Recorder) Trim(ctx context.Context) (int, error) {
	removed := 0
	err := r.modify(ctx, func(events []domain.AnalyticsEvent) []domain.AnalyticsEvent {
		before := len(events)
		events = r.cap(events)
		removed = before - len(events)
		return events
	})
	return removed, err
}

func (r *Recorder) cap(events []domain.AnalyticsEvent) []domain.AnalyticsEvent {
	if len(events) > r.capacity {
		events = events[len(events)-r.capacity:]
	}
	return events
}

func (r *Recorder) modify(ctx context.Context, fn func([]domain.AnalyticsEvent) []domain.AnalyticsEvent) error {
	unlock, err := r.lock.Lock(context.WithoutCancel(ctx), BufferKey)
	if err != nil {
		return err
	}
	defer unlock()

	events, err := r.load(ctx)
	if err != nil {
		var decodeErr *kv.DecodeError
		if !errors.As(err, &decodeErr) {
			return err
		}
		r.logger.Warn("Discarding unreadable analytics buffer", "error", err)
		events = nil
	}
	return kv.SetJSON(ctx, r.store, BufferKey, r.cap(fn(events)), 0)
}

func (r *Recorder) load(ctx context.Context) ([]domain.AnalyticsEvent, error) {
	var events []domain.AnalyticsEvent
	err := kv.GetJSON(ctx, r.store, BufferKey, &events)
	if errors.Is(err, kv.ErrNotFound) {
		return []domain.AnalyticsEvent{}, nil
	}
	return events, err
}
