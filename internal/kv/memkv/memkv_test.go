package memkv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSetClear(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// Returned slices are copies.
	got[0] = 'x'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again)

	require.NoError(t, s.Clear(ctx, "k"))
	require.NoError(t, s.Clear(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	s := NewWithClock(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Hour))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := New()

	type doc struct {
		N int `json:"n"`
	}
	require.NoError(t, kv.SetJSON(ctx, s, "doc", doc{N: 7}, 0))

	var out doc
	require.NoError(t, kv.GetJSON(ctx, s, "doc", &out))
	assert.Equal(t, 7, out.N)

	require.NoError(t, s.Set(ctx, "bad", []byte("{not json"), 0))
	err := kv.GetJSON(ctx, s, "bad", &out)
	var decodeErr *kv.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "bad", decodeErr.Key)
}

func TestFailing(t *testing.T) {
	boom := errors.New("storage disabled")
	f := Failing{Err: boom}

	_, err := f.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, f.Set(context.Background(), "k", nil, 0), boom)
	assert.ErrorIs(t, f.Clear(context.Background(), "k"), boom)
}
