// Package recent keeps each visitor's last few search queries in the KV store.
package recent

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/keylock"
	"github.com/heyprompt/heyprompt-server/internal/kv"
)

// KeyPrefix namespaces recent searches in the KV store.
const KeyPrefix = "recentSearches:"

// MaxEntries is how many queries are kept per actor.
const MaxEntries = 5

// Searches stores recent queries per actor. It is a cache: storage errors
// are logged and read as an empty list.
type Searches struct {
	store  kv.Store
	locks  *keylock.Map
	logger *slog.Logger
}

// New creates a recent search store.
func New(store kv.Store, logger *slog.Logger) *Searches {
	return &Searches{store: store, locks: keylock.New(), logger: logger}
}

func key(actor domain.Actor) string {
	return KeyPrefix + actor.Key()
}

// List returns the actor's recent queries, most recent first.
func (s *Searches) List(ctx context.Context, actor domain.Actor) []string {
	return s.load(ctx, actor)
}

// Record moves query to the front of the list. Blank queries are ignored.
func (s *Searches) Record(ctx context.Context, actor domain.Actor, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, actor)
	}
	return s.update(ctx, actor, func(list []string) []string {
		list = slices.DeleteFunc(list, func(q string) bool { return q == query })
		list = append([]string{query}, list...)
		if len(list) > MaxEntries {
			list = list[:MaxEntries]
		}
		return list
	})
}

// Remove drops one query.
func (s *Searches) Remove(ctx context.Context, actor domain.Actor, query string) []string {
	query = strings.TrimSpace(query)
	return s.update(ctx, actor, func(list []string) []string {
		return slices.DeleteFunc(list, func(q string) bool { return q == query })
	})
}

// Clear forgets every query of the actor.
func (s *Searches) Clear(ctx context.Context, actor domain.Actor) {
	if err := s.store.Clear(ctx, key(actor)); err != nil {
		s.logger.Warn("Failed to clear recent searches", "actor", actor.Key(), "error", err)
	}
}

func (s *Searches) update(ctx context.Context, actor domain.Actor, fn func([]string) []string) []string {
	unlock, err := s.locks.Lock(context.WithoutCancel(ctx), actor.Key())
	if err == nil {
		defer unlock()
	}

	list := fn(s.load(ctx, actor))
	if err := kv.SetJSON(ctx, s.store, key(actor), list, 0); err != nil {
		s.logger.Warn("Failed to save recent searches", "actor", actor.Key(), "error", err)
	}
	return list
}

func (s *Searches) load(ctx context.Context, actor domain.Actor) []string {
	var list []string
	err := kv.GetJSON(ctx, s.store, key(actor), &list)
	switch {
	case err == nil:
	case errors.Is(err, kv.ErrNotFound):
		return []string{}
	default:
		s.logger.Warn("Failed to load recent searches", "actor", actor.Key(), "error", err)
		return []string{}
	}
	if len(list) > MaxEntries {
		list = list[:MaxEntries]
	}
	if list == nil {
		list = []string{}
	}
	return list
}
