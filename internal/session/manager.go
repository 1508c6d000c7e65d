package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storeapi"
)

// Backend is the part of the commerce API sessions need.
type Backend interface {
	Login(ctx context.Context, username, password string) (*storeapi.Tokens, error)
	Profile(ctx context.Context, token string) (*storeapi.Profile, error)
}

// Manager creates, resolves and ends sessions.
type Manager struct {
	store   Store
	backend Backend
	logg    *logger.Logger
	now     func() time.Time
	group   singleflight.Group
}

func NewManager(store Store, backend Backend, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if backend == nil {
		return nil, fmt.Errorf("commerce backend required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{store: store, backend: backend, logg: logg, now: time.Now}, nil
}

// Login authenticates against the commerce API and opens a session under a
// freshly minted id. The session stored under previousID, if any, is ended:
// an id the browser carried before sign-in never becomes authenticated.
// Moving the cart to the new id is the caller's job. When the profile cannot
// be loaded the user id is read from the access token.
func (m *Manager) Login(ctx context.Context, previousID, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	tokens, err := m.backend.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:           uuid.NewString(),
		Token:        tokens.Access,
		RefreshToken: tokens.Refresh,
		Username:     username,
		CreatedAt:    m.now().UTC(),
	}
	ctx = m.logg.WithSessionID(ctx, sess.ID)
	if err := m.applyProfile(ctx, sess); err != nil {
		m.logg.Warn(ctx, "profile fetch after login failed: "+err.Error())
		m.applyClaims(ctx, sess)
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not open session")
	}
	if previousID = strings.TrimSpace(previousID); previousID != "" && previousID != sess.ID {
		if err := m.store.Delete(ctx, previousID); err != nil {
			m.logg.Error(m.logg.WithField(ctx, "previous_session_id", previousID), "ending pre-login session failed", err)
		}
	}
	m.logg.Info(m.logg.WithUserID(ctx, sess.UserID.String()), "session opened")
	return sess, nil
}

// Get loads a session as stored.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return m.store.Get(ctx, id)
}

// Logout ends a session; unknown ids are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not end session")
	}
	return nil
}

// Resolve returns the session with its user id filled in. Sessions whose
// access token has expired resolve as anonymous. Concurrent resolutions of
// the same session share one profile fetch.
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return sess, nil
	}
	if _, err := auth.Inspect(sess.Token, m.now()); errors.Is(err, auth.ErrTokenExpired) {
		m.logg.Info(m.logg.WithSessionID(ctx, sess.ID), "access token expired, session is anonymous")
		return sess.Anonymous(), nil
	}
	if !sess.UserID.IsZero() {
		return sess, nil
	}

	v, err, _ := m.group.Do(sess.ID, func() (any, error) {
		resolved := *sess
		fetchCtx := m.logg.WithSessionID(context.WithoutCancel(ctx), sess.ID)
		if err := m.applyProfile(fetchCtx, &resolved); err != nil {
			m.logg.Warn(fetchCtx, "profile fetch failed, falling back to token claims: "+err.Error())
			m.applyClaims(fetchCtx, &resolved)
			return &resolved, nil
		}
		if err := m.store.Save(fetchCtx, &resolved); err != nil {
			m.logg.Error(fetchCtx, "persist resolved session failed", err)
		}
		return &resolved, nil
	})
	if err != nil {
		return nil, err
	}
	out := *v.(*Session)
	return &out, nil
}

func (m *Manager) applyProfile(ctx context.Context, sess *Session) error {
	profile, err := m.backend.Profile(ctx, sess.Token)
	if err != nil {
		return err
	}
	sess.UserID = profile.ID
	sess.IsAdmin = profile.IsAdmin
	if profile.Username != "" {
		sess.Username = profile.Username
	}
	return nil
}

func (m *Manager) applyClaims(ctx context.Context, sess *Session) {
	claims, err := auth.Inspect(sess.Token, m.now())
	if err != nil || claims == nil {
		if err != nil {
			m.logg.Warn(ctx, "access token unreadable: "+err.Error())
		}
		return
	}
	sess.UserID = claims.UserID
}
