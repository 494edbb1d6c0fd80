package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	Token     string    `json:"-" db:"token"`
	UserID    int       `json:"user_id" db:"user_id"`
	Remember  bool      `json:"remember" db:"remember"`
	ExpiresAt time.Time `json:"expires_at" db:"expires"`
	CreatedAt time.Time `json:"created_at" db:"created"`
}

// SessionStore keeps server-side login sessions keyed by an opaque token.
type SessionStore interface {
	Create(ctx context.Context, userID int, remember bool, ttl time.Duration) (*Session, error)
	Get(ctx context.Context, token string) (*Session, error)
	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func newSession(userID int, remember bool, ttl time.Duration) (*Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Session{
		Token:     token,
		UserID:    userID,
		Remember:  remember,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}
