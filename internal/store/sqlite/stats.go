package sqlite

import (
	"context"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// SiteStats returns totals for the admin dashboard. Recent counts include rows created at or after since.
func (s *Store) SiteStats(ctx context.Context, since time.Time) (*domain.SiteStats, error) {
	var stats domain.SiteStats
	cutoff := formatTime(since)

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(view_count), 0),
			COALESCE(SUM(copy_count), 0),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM prompts`, cutoff,
	).Scan(&stats.TotalPrompts, &stats.TotalViews, &stats.TotalCopies, &stats.RecentPrompts)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM users`, cutoff,
	).Scan(&stats.TotalUsers, &stats.RecentUsers)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
