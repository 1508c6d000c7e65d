package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// SessionResolver loads the session behind a browser id.
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (*session.Session, error)
}

// RequireAdmin lets staff sessions through and exposes the resolved session
// via SessionFromContext. Anonymous callers get 401, shoppers 403.
func RequireAdmin(sessions SessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Resolve(r.Context(), SessionIDFromContext(r.Context()))
			switch {
			case errors.Is(err, session.ErrNotFound) || (err == nil && !sess.Authenticated()):
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to continue."))
				return
			case err != nil:
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not load session"))
				return
			case !sess.IsAdmin:
				if logg != nil {
					logg.Warn(logg.WithUserID(r.Context(), sess.UserID.String()), "back-office access denied")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Staff access required."))
				return
			}

			ctx := withSession(r.Context(), sess)
			if logg != nil {
				ctx = logg.WithUserID(ctx, sess.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
