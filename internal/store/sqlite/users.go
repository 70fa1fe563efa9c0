package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, email, password_hash, is_admin, last_login_at, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		isAdmin     int
		lastLoginAt sql.NullString
		createdAt   string
		updatedAt   string
	)
	if err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &isAdmin, &lastLoginAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin == 1

	var err error
	if lastLoginAt.Valid {
		if u.LastLoginAt, err = parseTime(lastLoginAt.String); err != nil {
			return nil, err
		}
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user and their profile in one transaction.
// Returns store.ErrAlreadyExists on a duplicate email or username.
func (s *Store) CreateUser(ctx context.Context, user *domain.User, profile *domain.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		boolInt(user.IsAdmin),
		nullTimeString(user.LastLoginAt),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.Taken("email")
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if profile != nil {
		profile.ID = user.ID
		if err := insertProfile(ctx, tx, profile); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("user")
	}
	return u, err
}

// GetUserByEmail retrieves a user by email, case-insensitively.
// Returns store.ErrNotFound if no user has that email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("user")
	}
	return u, err
}

// UpdateUser performs a full row update on an existing user.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, password_hash = ?, is_admin = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		boolInt(user.IsAdmin),
		nullTimeString(user.LastLoginAt),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.Taken("email")
		}
		return err
	}
	return expectOneRow(result, "user")
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetUserAdmin grants or revokes admin rights on both the account and the profile.
func (s *Store) SetUserAdmin(ctx context.Context, userID string, isAdmin bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, boolInt(isAdmin), userID)
	if err != nil {
		return err
	}
	if err := expectOneRow(result, "user"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE user_profiles SET is_admin = ? WHERE id = ?`, boolInt(isAdmin), userID); err != nil {
		return err
	}
	return tx.Commit()
}

// expectOneRow maps "no rows affected" to a not-found error for entity.
func expectOneRow(result sql.Result, entity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.NotFound(entity)
	}
	return nil
}
