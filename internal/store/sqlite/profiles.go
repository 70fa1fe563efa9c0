package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

const profileColumns = `id, username, bio, website, github, twitter, is_admin, created_at, updated_at`

func scanProfile(scanner interface{ Scan(dest ...any) error }) (*domain.Profile, error) {
	var (
		p                                       domain.Profile
		username, bio, website, github, twitter sql.NullString
		isAdmin                                 int
		createdAt, updatedAt                    string
	)
	if err := scanner.Scan(&p.ID, &username, &bio, &website, &github, &twitter, &isAdmin, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Username = username.String
	p.Bio = bio.String
	p.Website = website.String
	p.Github = github.String
	p.Twitter = twitter.String
	p.IsAdmin = isAdmin == 1

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProfile(ctx context.Context, db execer, p *domain.Profile) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		nullString(p.Username),
		nullString(p.Bio),
		nullString(p.Website),
		nullString(p.Github),
		nullString(p.Twitter),
		boolInt(p.IsAdmin),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.Taken("username")
	}
	return err
}

// GetProfile retrieves the profile of a user.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("profile")
	}
	return p, err
}

// GetProfileByUsername retrieves a profile by username, case-insensitively.
func (s *Store) GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE username = ?`, username)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("profile")
	}
	return p, err
}

// GetProfilesByIDs returns the profiles of the given users keyed by id.
// Missing users are absent from the map.
func (s *Store) GetProfilesByIDs(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE id IN (`+placeholders(len(userIDs))+`)`,
		stringArgs(userIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// UpdateProfile saves the editable profile fields.
// Returns store.ErrAlreadyExists when the username is taken.
func (s *Store) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_profiles SET username = ?, bio = ?, website = ?, github = ?, twitter = ?, updated_at = ?
		WHERE id = ?`,
		nullString(p.Username),
		nullString(p.Bio),
		nullString(p.Website),
		nullString(p.Github),
		nullString(p.Twitter),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.Taken("username")
		}
		return err
	}
	return expectOneRow(result, "profile")
}
