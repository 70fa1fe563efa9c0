package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// commentSelect joins the author's username so lists need no second query.
const commentSelect = `
	SELECT c.id, c.prompt_id, c.user_id, c.content, c.created_at, c.updated_at, p.username
	FROM comments c
	LEFT JOIN user_profiles p ON p.id = c.user_id`

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var (
		c                    domain.Comment
		createdAt, updatedAt string
		username             sql.NullString
	)
	err := scanner.Scan(&c.ID, &c.PromptID, &c.UserID, &c.Content, &createdAt, &updatedAt, &username)
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	c.Author = domain.Author{ID: c.UserID, Username: username.String}
	if c.Author.Username == "" {
		c.Author.Username = domain.AnonymousAuthorName
	}
	return &c, nil
}

// CreateComment inserts a comment.
func (s *Store) CreateComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, prompt_id, user_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.PromptID, c.UserID, c.Content, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithMessage("prompt or user not found")
	}
	return err
}

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	row := s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("comment")
	}
	return c, err
}

// ListComments returns a prompt's comments, oldest first.
func (s *Store) ListComments(ctx context.Context, promptID string) ([]*domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, commentSelect+` WHERE c.prompt_id = ? ORDER BY c.created_at ASC, c.id ASC`, promptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment replaces a comment's content.
func (s *Store) UpdateComment(ctx context.Context, c *domain.Comment) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		c.Content, formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return expectOneRow(result, "comment")
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "comment")
}

// CommentCounts returns the number of comments keyed by prompt id.
func (s *Store) CommentCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT prompt_id, COUNT(*) FROM comments GROUP BY prompt_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			promptID string
			n        int
		)
		if err := rows.Scan(&promptID, &n); err != nil {
			return nil, err
		}
		counts[promptID] = n
	}
	return counts, rows.Err()
}
