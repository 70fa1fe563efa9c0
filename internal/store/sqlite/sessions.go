package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// Column order shared by every session SELECT and by scanSession.
const sessionColumns = `id, user_id, refresh_token_hash, expires_at, created_at, last_seen_at, ip_address, user_agent`

func scanSession(row interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var (
		sess          domain.Session
		times         [3]string
		ip, userAgent sql.NullString
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.RefreshTokenHash, &times[0], &times[1], &times[2], &ip, &userAgent); err != nil {
		return nil, err
	}
	for i, dst := range []*time.Time{&sess.ExpiresAt, &sess.CreatedAt, &sess.LastSeenAt} {
		t, err := parseTime(times[i])
		if err != nil {
			return nil, err
		}
		*dst = t
	}
	sess.IPAddress, sess.UserAgent = ip.String, userAgent.String
	return &sess, nil
}

// sessionWhere loads the single session matching column = value.
func (s *Store) sessionWhere(ctx context.Context, column, value string) (*domain.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE `+column+` = ?`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound("session")
	}
	return sess, err
}

// CreateSession stores a new refresh session.
func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.RefreshTokenHash,
		formatTime(sess.ExpiresAt), formatTime(sess.CreatedAt), formatTime(sess.LastSeenAt),
		nullString(sess.IPAddress), nullString(sess.UserAgent),
	)
	if isUniqueViolation(err) {
		return store.Taken("session")
	}
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessionWhere(ctx, "id", id)
}

// GetSessionByRefreshToken finds the session holding tokenHash, the SHA-256
// of a refresh token.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	return s.sessionWhere(ctx, "refresh_token_hash", tokenHash)
}

// DeleteSession is idempotent.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpiredSessions purges sessions whose refresh window closed before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
