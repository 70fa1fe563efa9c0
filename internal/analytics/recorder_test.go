package analytics

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/kv"
	"github.com/heyprompt/heyprompt-server/internal/kv/memkv"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newRecorder(t *testing.T, store kv.Store, opts ...Option) (*Recorder, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewRecorder(store, m, slog.New(slog.DiscardHandler), opts...), m
}

func TestTrack_StampsAndStores(t *testing.T) {
	r, m := newRecorder(t, memkv.New())
	ctx := context.Background()

	ok := r.Track(ctx, domain.AnalyticsEvent{
		Name:       domain.EventPromptCopied,
		Properties: map[string]any{"prompt_id": "prompt-1"},
		UserID:     "user-1",
	})
	require.True(t, ok)

	events, err := r.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.True(t, events[0].Timestamp.Equal(fixedNow))
	assert.Equal(t, "user-1", events[0].UserID)
	assert.Equal(t, "prompt-1", events[0].Properties["prompt_id"])

	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsTotal.WithLabelValues("prompt_copied")), 0)
}

func TestTrack_RespectsDoNotTrack(t *testing.T) {
	r, m := newRecorder(t, memkv.New())
	ctx := WithDoNotTrack(context.Background(), true)

	assert.False(t, r.Track(ctx, domain.AnalyticsEvent{Name: domain.EventSearchPerformed}))
	events, err := r.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, testutil.ToFloat64(m.EventsTotal.WithLabelValues("search_performed")))
}

func TestTrack_RejectsUnknownEvent(t *testing.T) {
	r, _ := newRecorder(t, memkv.New())
	assert.False(t, r.Track(context.Background(), domain.AnalyticsEvent{Name: "rage_click"}))
}

func TestTrack_RingBuffer(t *testing.T) {
	r, _ := newRecorder(t, memkv.New(), WithCapacity(3))
	ctx := context.Background()

	for _, name := range []domain.EventName{
		domain.EventPageView, domain.EventPromptViewed, domain.EventPromptCopied, domain.EventPromptLiked, domain.EventPromptSaved,
	} {
		r.Track(ctx, domain.AnalyticsEvent{Name: name})
	}

	events, err := r.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventPromptSaved, events[0].Name)
	assert.Equal(t, domain.EventPromptLiked, events[1].Name)

	counts, err := r.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.EventName]int{
		domain.EventPromptCopied: 1, domain.EventPromptLiked: 1, domain.EventPromptSaved: 1,
	}, counts)
}

func TestTrim(t *testing.T) {
	store := memkv.New()
	ctx := context.Background()
	big, _ := newRecorder(t, store, WithCapacity(10))
	for range 6 {
		big.Track(ctx, domain.AnalyticsEvent{Name: domain.EventPageView})
	}

	small, _ := newRecorder(t, store, WithCapacity(4))
	removed, err := small.Trim(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	events, err := small.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestTrack_StorageFailureIsSwallowed(t *testing.T) {
	r, _ := newRecorder(t, memkv.Failing{Err: errors.New("offline")})
	assert.True(t, r.Track(context.Background(), domain.AnalyticsEvent{Name: domain.EventPageView}))

	_, err := r.Recent(context.Background(), 0)
	assert.Error(t, err)
}
