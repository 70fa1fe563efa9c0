package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// UpsertRating stores a user's rating of a prompt, replacing any earlier one.
// The row keeps its original id and created_at on update.
func (s *Store) UpsertRating(ctx context.Context, r *domain.Rating) error {
	if r.Value < domain.MinRatingValue || r.Value > domain.MaxRatingValue {
		return store.Invalid("rating must be between 1 and 5")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (id, prompt_id, user_id, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, prompt_id) DO UPDATE SET
			rating = excluded.rating,
			updated_at = excluded.updated_at`,
		r.ID,
		r.PromptID,
		r.UserID,
		r.Value,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return store.NotFound("prompt")
	}
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// GetRatingSummary aggregates a prompt's ratings. UserRating is filled when viewerID has rated it.
func (s *Store) GetRatingSummary(ctx context.Context, promptID, viewerID string) (*domain.RatingSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rating, COUNT(*) FROM ratings WHERE prompt_id = ? GROUP BY rating`, promptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &domain.RatingSummary{PromptID: promptID}
	total := 0
	for rows.Next() {
		var value, count int
		if err := rows.Scan(&value, &count); err != nil {
			return nil, err
		}
		if value < domain.MinRatingValue || value > domain.MaxRatingValue {
			continue
		}
		summary.Distribution[value-1] = count
		summary.Count += count
		total += value * count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}

	if viewerID != "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT rating FROM ratings WHERE prompt_id = ? AND user_id = ?`, promptID, viewerID,
		).Scan(&summary.UserRating)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	return summary, nil
}

// RatingAggregates returns average and count of ratings keyed by prompt id.
func (s *Store) RatingAggregates(ctx context.Context) (map[string]store.RatingAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT prompt_id, AVG(rating), COUNT(*) FROM ratings GROUP BY prompt_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]store.RatingAggregate)
	for rows.Next() {
		var (
			promptID string
			agg      store.RatingAggregate
		)
		if err := rows.Scan(&promptID, &agg.Average, &agg.Count); err != nil {
			return nil, err
		}
		out[promptID] = agg
	}
	return out, rows.Err()
}
