// Package session keeps the storefront's browser sessions: the commerce API
// tokens and the resolved user behind a session cookie.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/types"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is one browser's login state.
type Session struct {
	ID           string    `json:"id"`
	Token        string    `json:"token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Username     string    `json:"username,omitempty"`
	UserID       types.ID  `json:"user_id,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Authenticated reports whether the session carries an access token.
func (s *Session) Authenticated() bool {
	return s != nil && strings.TrimSpace(s.Token) != ""
}

// Anonymous returns a copy stripped of credentials and identity.
func (s *Session) Anonymous() *Session {
	if s == nil {
		return nil
	}
	return &Session{ID: s.ID, CreatedAt: s.CreatedAt}
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}
