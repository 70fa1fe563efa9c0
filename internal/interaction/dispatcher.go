// Package interaction turns visitor actions on prompts (copy, like, bookmark)
// into outcomes, enforcing authentication and the anonymous copy quota.
//
// Every dispatch ends in exactly one outcome and exactly one notification.
// Expected refusals (sign-in required, quota exhausted, clipboard missing) are
// outcomes, not errors; Dispatch only returns an error for malformed requests.
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/heyprompt/heyprompt-server/internal/clipboard"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/keylock"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/optimistic"
	"github.com/heyprompt/heyprompt-server/internal/quota"
)

// RetryPolicy bounds retries of transient store failures.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy makes three attempts with exponential backoff from one second, capped at ten.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: time.Second, MaxDelay: 10 * time.Second}

// Options wires a Dispatcher.
type Options struct {
	Content    ContentSource
	Toggles    ToggleStore
	Quota      *quota.Tracker
	Clipboards ClipboardFactory
	Notifier   notify.Notifier
	Ledger     *optimistic.Ledger
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Retry      RetryPolicy

	// IsTransient classifies store errors worth retrying. Nil retries nothing.
	IsTransient func(error) bool
}

// Dispatcher executes interaction requests.
type Dispatcher struct {
	content     ContentSource
	toggles     ToggleStore
	quota       *quota.Tracker
	clipboards  ClipboardFactory
	notifier    notify.Notifier
	ledger      *optimistic.Ledger
	metrics     *metrics.Metrics
	logger      *slog.Logger
	retry       RetryPolicy
	isTransient func(error) bool
	locks       *keylock.Map
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		content:     opts.Content,
		toggles:     opts.Toggles,
		quota:       opts.Quota,
		clipboards:  opts.Clipboards,
		notifier:    opts.Notifier,
		ledger:      opts.Ledger,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		retry:       opts.Retry,
		isTransient: opts.IsTransient,
		locks:       keylock.New(),
	}
	if d.notifier == nil {
		d.notifier = notify.Discard{}
	}
	if d.ledger == nil {
		d.ledger = optimistic.NewLedger()
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.retry.Attempts == 0 {
		d.retry = DefaultRetryPolicy
	}
	if d.isTransient == nil {
		d.isTransient = func(error) bool { return false }
	}
	if d.clipboards == nil {
		d.clipboards = func(domain.Actor) clipboard.Clipboard { return &clipboard.Response{} }
	}
	return d
}

// Ledger returns the optimistic state ledger.
func (d *Dispatcher) Ledger() *optimistic.Ledger {
	return d.ledger
}

// DispatchOption adjusts a single dispatch.
type DispatchOption func(*dispatchConfig)

type dispatchConfig struct {
	clipboard clipboard.Clipboard
}

// WithClipboard overrides the clipboard for one copy.
func WithClipboard(c clipboard.Clipboard) DispatchOption {
	return func(cfg *dispatchConfig) { cfg.clipboard = c }
}

// Dispatch performs req and reports its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.InteractionRequest, opts ...DispatchOption) (domain.InteractionOutcome, error) {
	if err := validate(req); err != nil {
		return domain.InteractionOutcome{}, err
	}

	cfg := dispatchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clipboard == nil {
		cfg.clipboard = d.clipboards(req.Actor)
	}

	start := time.Now()
	log := logger.FromContext(ctx, d.logger).With(
		slog.String("action", string(req.Action)),
		slog.String("prompt_id", req.SubjectID),
		slog.String("actor", req.Actor.Key()),
	)

	var (
		out   domain.InteractionOutcome
		title string
	)
	switch {
	case req.Action.IsToggle() && !req.Actor.IsAuthenticated():
		out = outcome(req, domain.OutcomeBlockedNeedsAuth)
	case req.Action == domain.ActionCopy:
		out, title = d.copy(ctx, log, req, cfg.clipboard)
	default:
		out = d.toggle(ctx, log, req)
	}

	d.notifier.Notify(ctx, notificationFor(notify.AudienceOf(req.Actor), out, title))
	d.metrics.RecordInteraction(string(req.Action), string(out.Kind), time.Since(start))

	if out.Kind == domain.OutcomeFailed {
		log.Warn("interaction failed", slog.String("reason", string(out.Reason)), slog.Any("error", out.Err))
	} else {
		log.Debug("interaction dispatched", slog.String("outcome", string(out.Kind)))
	}
	return out, nil
}

func validate(req domain.InteractionRequest) error {
	if !req.Action.Valid() {
		return errors.MalformedInputf("unknown action %q", req.Action)
	}
	if req.SubjectID == "" {
		return errors.MalformedInput("prompt id is required")
	}
	// Anonymous toggles are blocked before they touch anything device-scoped.
	if req.Action == domain.ActionCopy && !req.Actor.IsAuthenticated() && req.Actor.DeviceID == "" {
		return errors.MalformedInput("anonymous copy requires a device id")
	}
	return nil
}

func outcome(req domain.InteractionRequest, kind domain.OutcomeKind) domain.InteractionOutcome {
	return domain.InteractionOutcome{Kind: kind, Action: req.Action, SubjectID: req.SubjectID}
}

func failed(req domain.InteractionRequest, reason domain.FailureReason, err error) domain.InteractionOutcome {
	out := outcome(req, domain.OutcomeFailed)
	out.Reason = reason
	out.Err = err
	return out
}

// lockKey serializes anonymous copies per device so quota checks and consumption
// cannot interleave across prompts. Everything else serializes per prompt.
func lockKey(req domain.InteractionRequest) string {
	if req.Action == domain.ActionCopy && !req.Actor.IsAuthenticated() {
		return req.Actor.Key() + "|copy"
	}
	return req.Actor.Key() + "|" + req.SubjectID
}

func (d *Dispatcher) copy(ctx context.Context, log *slog.Logger, req domain.InteractionRequest, cb clipboard.Clipboard) (domain.InteractionOutcome, string) {
	unlock, err := d.locks.Lock(ctx, lockKey(req))
	if err != nil {
		return failed(req, domain.ReasonRemoteError, err), ""
	}
	defer unlock()

	var device *quota.Device
	if !req.Actor.IsAuthenticated() {
		device = d.quota.For(req.Actor.DeviceID)
		if !device.CanConsume(ctx) {
			out := outcome(req, domain.OutcomeBlockedQuotaExceeded)
			zero := 0
			out.Remaining = &zero
			return out, ""
		}
	}

	var title, content string
	err = d.withRetry(ctx, func() error {
		var err error
		title, content, err = d.content.GetPromptContent(ctx, req.SubjectID)
		return err
	})
	if err != nil {
		return failed(req, domain.ReasonRemoteError, fmt.Errorf("load prompt content: %w", err)), ""
	}

	if err := cb.Write(ctx, content); err != nil {
		return failed(req, domain.ReasonClipboardUnavailable, err), title
	}

	out := outcome(req, domain.OutcomeExecuted)
	out.Content = content
	if device != nil {
		device.Consume(ctx)
		remaining := device.Remaining(ctx)
		out.Remaining = &remaining
	}

	d.recordCopy(context.WithoutCancel(ctx), log, req)
	return out, title
}

// recordCopy bumps the copy counter. Failures are logged and never change the outcome.
func (d *Dispatcher) recordCopy(ctx context.Context, log *slog.Logger, req domain.InteractionRequest) {
	if err := d.toggles.IncrementCopyCount(ctx, req.SubjectID); err != nil {
		log.Warn("failed to increment copy count", slog.Any("error", err))
	}
	if req.Actor.IsAuthenticated() {
		if err := d.toggles.RecordCopy(ctx, req.Actor.UserID, req.SubjectID); err != nil {
			log.Warn("failed to record copy interaction", slog.Any("error", err))
		}
	}
}

func (d *Dispatcher) toggle(ctx context.Context, log *slog.Logger, req domain.InteractionRequest) domain.InteractionOutcome {
	unlock, err := d.locks.Lock(ctx, lockKey(req))
	if err != nil {
		return failed(req, domain.ReasonRemoteError, err)
	}
	defer unlock()

	key := optimistic.Key{Actor: req.Actor, Subject: req.SubjectID, Action: req.Action}

	prior, err := d.toggles.HasInteraction(ctx, req.Actor.UserID, req.SubjectID, req.Action)
	if err != nil {
		// The toggle below decides the real state; the prior only seeds the optimistic view.
		log.Debug("prior interaction state unavailable", slog.Any("error", err))
		prior = d.ledger.Get(key).Value
	}
	gen := d.ledger.Begin(ctx, key, prior, !prior)

	var inserted bool
	err = d.withRetry(ctx, func() error {
		var err error
		inserted, err = d.toggles.ToggleInteraction(ctx, req.Actor.UserID, req.SubjectID, req.Action)
		return err
	})
	if err != nil {
		d.ledger.Rollback(context.WithoutCancel(ctx), key, gen)
		return failed(req, domain.ReasonRemoteError, err)
	}

	d.ledger.Commit(context.WithoutCancel(ctx), key, gen, inserted)

	out := outcome(req, domain.OutcomeExecuted)
	out.State = domain.ToggleUnset
	if inserted {
		out.State = domain.ToggleSet
	}
	return out
}

func (d *Dispatcher) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(d.retry.Attempts),
		retry.Delay(d.retry.Delay),
		retry.MaxDelay(d.retry.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(d.isTransient),
		retry.LastErrorOnly(true),
	)
}
