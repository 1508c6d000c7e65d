package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/confirmation"
	"github.com/angelmondragon/storefront/internal/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/storeapi"
)

// Sessions is the session surface the handlers use.
type Sessions interface {
	Login(ctx context.Context, id, username, password string) (*session.Session, error)
	Logout(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) (*session.Session, error)
}

// currentSession resolves the browser's session. A browser that never
// logged in yields an anonymous session.
func currentSession(ctx context.Context, sessions Sessions, id string) (*session.Session, error) {
	sess, err := sessions.Resolve(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return &session.Session{ID: id}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not load session")
	}
	return sess, nil
}

// requireSession resolves the session and rejects anonymous callers.
func requireSession(r *http.Request, sessions Sessions) (*session.Session, error) {
	sess, err := currentSession(r.Context(), sessions, middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to continue.")
	}
	return sess, nil
}

// sessionIdentity adapts a browser session to the confirmation flow.
type sessionIdentity struct {
	sessions Sessions
	id       string
}

func (s sessionIdentity) ResolveIdentity(ctx context.Context) (confirmation.Identity, error) {
	sess, err := currentSession(ctx, s.sessions, s.id)
	if err != nil {
		return confirmation.Identity{}, err
	}
	return confirmation.Identity{Token: sess.Token, UserID: sess.UserID}, nil
}

// expireOnUnauthorized ends the session when the commerce API rejected its
// token, so the shopper is asked to log in again.
func expireOnUnauthorized(ctx context.Context, sessions Sessions, id string, err error) {
	if storeapi.StatusOf(err) == http.StatusUnauthorized {
		_ = sessions.Logout(ctx, id)
	}
}
