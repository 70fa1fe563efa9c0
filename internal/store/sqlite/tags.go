package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/store"
	"github.com/heyprompt/heyprompt-server/internal/util"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, slug, type, color, order_index, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t         domain.Tag
		tagType   string
		color     sql.NullString
		createdAt string
	)

	err := scanner.Scan(&t.ID, &t.Name, &t.Slug, &tagType, &color, &t.OrderIndex, &createdAt)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TagType(tagType)
	t.Color = color.String

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a new tag into the database.
// Returns store.ErrAlreadyExists on a duplicate (type, slug).
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (`+tagColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Name,
		t.Slug,
		string(t.Type),
		nullString(t.Color),
		t.OrderIndex,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTagBySlug retrieves a tag by type and slug.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagBySlug(ctx context.Context, tagType domain.TagType, slug string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE type = ? AND slug = ?`, string(tagType), slug)

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("tag")
	}
	return t, err
}

// ListTags returns all tags ordered for display: type, then order_index, then name.
func (s *Store) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY type ASC, order_index ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// FindOrCreateTag finds a tag by type and slugified name, creating it at the end of its type's order.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, tagType domain.TagType, name string) (*domain.Tag, bool, error) {
	if !tagType.Valid() {
		return nil, false, store.Invalid("unknown tag type")
	}
	slug := util.Slugify(name)
	if slug == "" {
		return nil, false, store.Invalid("empty tag name")
	}

	existing, err := s.GetTagBySlug(ctx, tagType, slug)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, fmt.Errorf("generate tag id: %w", err)
	}

	var next int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_index) + 1, 0) FROM tags WHERE type = ?`, string(tagType),
	).Scan(&next); err != nil {
		return nil, false, err
	}

	t := &domain.Tag{
		ID:         tagID,
		Name:       name,
		Slug:       slug,
		Type:       tagType,
		OrderIndex: next,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.CreateTag(ctx, t); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Another request created it first.
			existing, err := s.GetTagBySlug(ctx, tagType, slug)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}

// ListPromptTagLinks returns tag ids keyed by prompt id.
func (s *Store) ListPromptTagLinks(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT prompt_id, tag_id FROM prompt_tags ORDER BY prompt_id, tag_id`)
	if err != nil {
		return nil, fmt.Errorf("query prompt_tags: %w", err)
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var promptID, tagID string
		if err := rows.Scan(&promptID, &tagID); err != nil {
			return nil, fmt.Errorf("scan prompt_tag: %w", err)
		}
		links[promptID] = append(links[promptID], tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return links, nil
}
