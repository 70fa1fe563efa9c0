package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Schedules for the maintenance jobs.
const (
	SessionCleanupSpec = "@hourly"
	SearchReindexSpec  = "0 3 * * *"
	HousekeepingSpec   = "*/15 * * * *"
)

// LedgerRetention is how long settled optimistic operations are remembered.
const LedgerRetention = time.Hour

type sessionCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

type reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

type eventTrimmer interface {
	Trim(ctx context.Context) (int, error)
}

type ledgerPruner interface {
	Prune(cutoff time.Time) int
}

// Maintenance holds the dependencies of the built-in jobs. Nil fields skip their job.
type Maintenance struct {
	Sessions sessionCleaner
	Search   reindexer
	Events   eventTrimmer
	Ledger   ledgerPruner
	Logger   *slog.Logger
	Now      func() time.Time
}

// Jobs returns the jobs for the configured dependencies.
func (m Maintenance) Jobs() []Job {
	now := m.Now
	if now == nil {
		now = time.Now
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var jobs []Job
	if m.Sessions != nil {
		jobs = append(jobs, Job{
			Name:    "session-cleanup",
			Spec:    SessionCleanupSpec,
			Timeout: 5 * time.Minute,
			Run: func(ctx context.Context) error {
				n, err := m.Sessions.CleanupExpired(ctx)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
				return nil
			},
		})
	}
	if m.Search != nil {
		jobs = append(jobs, Job{
			Name:    "search-reindex",
			Spec:    SearchReindexSpec,
			Timeout: 30 * time.Minute,
			Run: func(ctx context.Context) error {
				n, err := m.Search.Reindex(ctx)
				if err != nil {
					return err
				}
				logger.Info("search index rebuilt", "documents", n)
				return nil
			},
		})
	}
	if m.Events != nil || m.Ledger != nil {
		jobs = append(jobs, Job{
			Name:    "housekeeping",
			Spec:    HousekeepingSpec,
			Timeout: 2 * time.Minute,
			Run: func(ctx context.Context) error {
				if m.Ledger != nil {
					if n := m.Ledger.Prune(now().Add(-LedgerRetention)); n > 0 {
						logger.Debug("optimistic ledger pruned", "count", n)
					}
				}
				if m.Events == nil {
					return nil
				}
				n, err := m.Events.Trim(ctx)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Debug("analytics events trimmed", "count", n)
				}
				return nil
			},
		})
	}
	return jobs
}

// Register adds every maintenance job to s.
func (m Maintenance) Register(s *Scheduler) error {
	for _, job := range m.Jobs() {
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}
