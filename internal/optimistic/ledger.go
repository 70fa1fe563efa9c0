// Package optimistic tracks the optimistic state of in-flight interactions.
//
// Each (actor, subject, action) key walks Idle → Pending → {Committed, RolledBack}.
// Begin hands out a generation; Commit and Rollback only apply while that
// generation is current and pending, so a late completion can never overwrite
// the result of a newer dispatch.
package optimistic

import (
	"context"
	"sync"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// Phase is the state of one entry.
type Phase string

// Phases.
const (
	PhaseIdle       Phase = "idle"
	PhasePending    Phase = "pending"
	PhaseCommitted  Phase = "committed"
	PhaseRolledBack Phase = "rolled_back"
)

// Key identifies an entry.
type Key struct {
	Actor   domain.Actor
	Subject string
	Action  domain.ActionKind
}

func (k Key) String() string {
	return k.Actor.Key() + "|" + k.Subject + "|" + string(k.Action)
}

// State is a snapshot of one entry.
// Value is what the client should display: the optimistic value while pending,
// the confirmed value once committed, and the prior value after a rollback.
type State struct {
	Key        Key       `json:"-"`
	Phase      Phase     `json:"phase"`
	Generation uint64    `json:"generation"`
	Prior      bool      `json:"prior"`
	Value      bool      `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Publisher observes every transition.
type Publisher interface {
	Publish(ctx context.Context, s State)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, s State)

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, s State) { f(ctx, s) }

// ToggleState renders Value as a toggle state.
func (s State) ToggleState() domain.ToggleState {
	if s.Value {
		return domain.ToggleSet
	}
	return domain.ToggleUnset
}

type entry struct {
	gen       uint64
	phase     Phase
	prior     bool
	value     bool
	updatedAt time.Time
}

// Ledger holds entries in memory.
type Ledger struct {
	mu        sync.Mutex
	entries   map[Key]*entry
	publisher Publisher
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets the transition observer.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{entries: make(map[Key]*entry), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Begin moves key to Pending with the optimistic value and returns its generation.
// A Begin on an already pending key supersedes the earlier dispatch.
func (l *Ledger) Begin(ctx context.Context, key Key, prior, optimistic bool) uint64 {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.gen++
	e.phase = PhasePending
	e.prior = prior
	e.value = optimistic
	e.updatedAt = l.now()
	s := e.snapshot(key)
	l.mu.Unlock()

	l.publish(ctx, s)
	return s.Generation
}

// Commit confirms gen with the value reported by the store.
// It reports false and changes nothing when gen is stale or not pending.
func (l *Ledger) Commit(ctx context.Context, key Key, gen uint64, value bool) bool {
	return l.settle(ctx, key, gen, PhaseCommitted, &value)
}

// Rollback restores the prior value of gen.
// It reports false and changes nothing when gen is stale or not pending.
func (l *Ledger) Rollback(ctx context.Context, key Key, gen uint64) bool {
	return l.settle(ctx, key, gen, PhaseRolledBack, nil)
}

func (l *Ledger) settle(ctx context.Context, key Key, gen uint64, phase Phase, value *bool) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok || e.gen != gen || e.phase != PhasePending {
		l.mu.Unlock()
		return false
	}
	e.phase = phase
	if value != nil {
		e.value = *value
	} else {
		e.value = e.prior
	}
	e.updatedAt = l.now()
	s := e.snapshot(key)
	l.mu.Unlock()

	l.publish(ctx, s)
	return true
}

// Get returns the state of key. Unknown keys are Idle.
func (l *Ledger) Get(key Key) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return State{Key: key, Phase: PhaseIdle}
	}
	return e.snapshot(key)
}

// Prune forgets settled entries last updated before cutoff and returns how many were removed.
// Pending entries are kept.
func (l *Ledger) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.entries {
		if e.phase != PhasePending && e.updatedAt.Before(cutoff) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Ledger) publish(ctx context.Context, s State) {
	if l.publisher != nil {
		l.publisher.Publish(ctx, s)
	}
}

func (e *entry) snapshot(key Key) State {
	return State{
		Key:        key,
		Phase:      e.phase,
		Generation: e.gen,
		Prior:      e.prior,
		Value:      e.value,
		UpdatedAt:  e.updatedAt,
	}
}
