package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// SQLSessionStore keeps sessions in the sessions table. Used when no Redis is
// available, e.g. the desktop build.
type SQLSessionStore struct {
	db *sqlx.DB
}

func NewSQLSessionStore(db *sqlx.DB) *SQLSessionStore {
	return &SQLSessionStore{db: db}
}

func (s *SQLSessionStore) Create(ctx context.Context, userID int, remember bool, ttl time.Duration) (*Session, error) {
	session, err := newSession(userID, remember, ttl)
	if err != nil {
		return nil, err
	}

	query := s.db.Rebind(`INSERT INTO sessions (token, user_id, remember, expires, created) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		session.Token,
		session.UserID,
		session.Remember,
		session.ExpiresAt,
		session.CreatedAt,
	); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SQLSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	query := s.db.Rebind(`SELECT token, user_id, remember, expires, created FROM sessions WHERE token = ?`)

	var session Session
	if err := s.db.GetContext(ctx, &session, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.Delete(ctx, token); err != nil {
			logrus.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *SQLSessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE token = ?`), token)
	return err
}

// DeleteExpired removes stale rows and returns how many were dropped.
func (s *SQLSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE expires < ?`), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
