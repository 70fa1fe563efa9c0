package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// promptColumns is the ordered list of columns selected in prompt queries.
// Must match the scan order in scanPrompt.
const promptColumns = `id, title, description, prompt_content, token_usage, emoji, background_color,
	copy_count, view_count, is_published, created_by, parent_prompt_id, version,
	pack_id, pack_key, created_at, updated_at`

func scanPrompt(scanner interface{ Scan(dest ...any) error }) (*domain.Prompt, error) {
	var (
		p                                    domain.Prompt
		tokenUsage                           string
		emoji, background                    sql.NullString
		isPublished                          int
		createdBy, parentID, packID, packKey sql.NullString
		createdAt, updatedAt                 string
	)

	err := scanner.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Content,
		&tokenUsage,
		&emoji,
		&background,
		&p.CopyCount,
		&p.ViewCount,
		&isPublished,
		&createdBy,
		&parentID,
		&p.Version,
		&packID,
		&packKey,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.TokenUsage = domain.TokenUsage(tokenUsage)
	p.Emoji = emoji.String
	p.BackgroundColor = background.String
	p.IsPublished = isPublished == 1
	p.CreatedBy = createdBy.String
	p.ParentPromptID = parentID.String
	p.PackID = packID.String
	p.PackKey = packKey.String

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func insertPrompt(ctx context.Context, db execer, p *domain.Prompt) error {
	if p.Version == 0 {
		p.Version = 1
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO prompts (`+promptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Title,
		p.Description,
		p.Content,
		string(p.TokenUsage),
		nullString(p.Emoji),
		nullString(p.BackgroundColor),
		p.CopyCount,
		p.ViewCount,
		boolInt(p.IsPublished),
		nullString(p.CreatedBy),
		nullString(p.ParentPromptID),
		p.Version,
		nullString(p.PackID),
		nullString(p.PackKey),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func linkTags(ctx context.Context, db execer, promptID string, tagIDs []string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM prompt_tags WHERE prompt_id = ?`, promptID); err != nil {
		return fmt.Errorf("delete prompt_tags: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO prompt_tags (prompt_id, tag_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING`, promptID, tagID)
		if isForeignKeyViolation(err) {
			return store.NotFound("tag").WithMessage("tag not found: " + tagID)
		}
		if err != nil {
			return fmt.Errorf("insert prompt_tag: %w", err)
		}
	}
	return nil
}

// CreatePrompt inserts a prompt and its tag links in a single transaction.
func (s *Store) CreatePrompt(ctx context.Context, p *domain.Prompt, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertPrompt(ctx, tx, p); err != nil {
		return err
	}
	if err := linkTags(ctx, tx, p.ID, tagIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPrompt retrieves a prompt by ID, published or not.
// Returns store.ErrNotFound if the prompt does not exist.
func (s *Store) GetPrompt(ctx context.Context, id string) (*domain.Prompt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id)
	p, err := scanPrompt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("prompt")
	}
	return p, err
}

// GetPromptContent returns the title and template text of a published prompt.
func (s *Store) GetPromptContent(ctx context.Context, id string) (string, string, error) {
	var title, content string
	err := s.db.QueryRowContext(ctx,
		`SELECT title, prompt_content FROM prompts WHERE id = ? AND is_published = 1`, id,
	).Scan(&title, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", store.NotFound("prompt")
	}
	return title, content, err
}

// ListPrompts returns prompts matching filter, newest first.
func (s *Store) ListPrompts(ctx context.Context, filter store.PromptFilter) ([]*domain.Prompt, error) {
	var (
		where []string
		args  []any
	)
	if filter.PublishedOnly {
		where = append(where, "is_published = 1")
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []*domain.Prompt{}, nil
		}
		where = append(where, "id IN ("+placeholders(len(filter.IDs))+")")
		args = append(args, stringArgs(filter.IDs)...)
	}

	query := `SELECT ` + promptColumns + ` FROM prompts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := []*domain.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// IncrementCopyCount adds one to a prompt's copy counter.
func (s *Store) IncrementCopyCount(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE prompts SET copy_count = copy_count + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "prompt")
}

// IncrementViewCount adds one to a prompt's view counter.
func (s *Store) IncrementViewCount(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE prompts SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "prompt")
}

// UpsertPackPrompts inserts or updates pack prompts keyed by (pack_id, pack_key).
// Counters, ids and creation times of existing rows are preserved.
func (s *Store) UpsertPackPrompts(ctx context.Context, prompts []store.PackPrompt) (created, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, pp := range prompts {
		p := pp.Prompt
		if p.PackID == "" || p.PackKey == "" {
			return 0, 0, store.Invalid("pack prompt without pack id or key")
		}

		var existingID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM prompts WHERE pack_id = ? AND pack_key = ?`, p.PackID, p.PackKey,
		).Scan(&existingID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := insertPrompt(ctx, tx, p); err != nil {
				return 0, 0, fmt.Errorf("insert pack prompt %s/%s: %w", p.PackID, p.PackKey, err)
			}
			created++
		case err != nil:
			return 0, 0, err
		default:
			p.ID = existingID
			_, err := tx.ExecContext(ctx, `
				UPDATE prompts SET title = ?, description = ?, prompt_content = ?, token_usage = ?,
					emoji = ?, background_color = ?, is_published = ?, updated_at = ?
				WHERE id = ?`,
				p.Title,
				p.Description,
				p.Content,
				string(p.TokenUsage),
				nullString(p.Emoji),
				nullString(p.BackgroundColor),
				boolInt(p.IsPublished),
				formatTime(p.UpdatedAt),
				existingID,
			)
			if err != nil {
				return 0, 0, fmt.Errorf("update pack prompt %s/%s: %w", p.PackID, p.PackKey, err)
			}
			updated++
		}

		if err := linkTags(ctx, tx, p.ID, pp.TagIDs); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}
