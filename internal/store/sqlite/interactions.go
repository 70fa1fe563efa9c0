package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// ToggleInteraction flips a like or bookmark in one write transaction.
// It returns true when the interaction is now set and false when it was removed.
// The UNIQUE(user_id, prompt_id, interaction_type) constraint makes concurrent toggles alternate.
func (s *Store) ToggleInteraction(ctx context.Context, userID, promptID string, kind domain.ActionKind) (bool, error) {
	if !kind.IsToggle() {
		return false, store.Invalid("interaction is not a toggle")
	}

	rowID, err := id.Generate("ixn")
	if err != nil {
		return false, fmt.Errorf("generate interaction id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO user_interactions (id, user_id, prompt_id, interaction_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, prompt_id, interaction_type) DO NOTHING`,
		rowID, userID, promptID, string(kind), formatTime(time.Now()),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, store.NotFound("prompt")
		}
		return false, fmt.Errorf("insert interaction: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if inserted == 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM user_interactions
			WHERE user_id = ? AND prompt_id = ? AND interaction_type = ?`,
			userID, promptID, string(kind),
		); err != nil {
			return false, fmt.Errorf("delete interaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}
	return inserted == 1, nil
}

// RecordCopy notes that a user copied a prompt, refreshing the timestamp on repeat copies.
func (s *Store) RecordCopy(ctx context.Context, userID, promptID string) error {
	rowID, err := id.Generate("ixn")
	if err != nil {
		return fmt.Errorf("generate interaction id: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_interactions (id, user_id, prompt_id, interaction_type, created_at)
		VALUES (?, ?, ?, 'copy', ?)
		ON CONFLICT (user_id, prompt_id, interaction_type) DO UPDATE SET created_at = excluded.created_at`,
		rowID, userID, promptID, formatTime(time.Now()),
	)
	if isForeignKeyViolation(err) {
		return store.NotFound("prompt")
	}
	return err
}

// HasInteraction reports whether a user currently has an interaction of the given kind on a prompt.
func (s *Store) HasInteraction(ctx context.Context, userID, promptID string, kind domain.ActionKind) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_interactions
		WHERE user_id = ? AND prompt_id = ? AND interaction_type = ?`,
		userID, promptID, string(kind),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountInteractions returns like and bookmark totals keyed by prompt id.
func (s *Store) CountInteractions(ctx context.Context) (map[string]store.InteractionCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT prompt_id,
			SUM(CASE WHEN interaction_type = 'like' THEN 1 ELSE 0 END),
			SUM(CASE WHEN interaction_type = 'bookmark' THEN 1 ELSE 0 END)
		FROM user_interactions
		WHERE interaction_type IN ('like', 'bookmark')
		GROUP BY prompt_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]store.InteractionCounts)
	for rows.Next() {
		var (
			promptID string
			c        store.InteractionCounts
		)
		if err := rows.Scan(&promptID, &c.Likes, &c.Bookmarks); err != nil {
			return nil, err
		}
		counts[promptID] = c
	}
	return counts, rows.Err()
}

// ViewerFlags returns which prompts a user has liked or bookmarked.
// An empty userID yields an empty map.
func (s *Store) ViewerFlags(ctx context.Context, userID string) (map[string]store.ViewerFlags, error) {
	flags := make(map[string]store.ViewerFlags)
	if userID == "" {
		return flags, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT prompt_id, interaction_type FROM user_interactions
		WHERE user_id = ? AND interaction_type IN ('like', 'bookmark')`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var promptID, kind string
		if err := rows.Scan(&promptID, &kind); err != nil {
			return nil, err
		}
		f := flags[promptID]
		switch domain.ActionKind(kind) {
		case domain.ActionLike:
			f.Liked = true
		case domain.ActionBookmark:
			f.Bookmarked = true
		}
		flags[promptID] = f
	}
	return flags, rows.Err()
}

// ListInteractedPromptIDs returns the prompts a user has interacted with, most recent first.
func (s *Store) ListInteractedPromptIDs(ctx context.Context, userID string, kind domain.ActionKind) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT prompt_id FROM user_interactions
		WHERE user_id = ? AND interaction_type = ?
		ORDER BY created_at DESC`, userID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var promptID string
		if err := rows.Scan(&promptID); err != nil {
			return nil, err
		}
		ids = append(ids, promptID)
	}
	return ids, rows.Err()
}
