package orders

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storeapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

const maxTrackingCodeLength = 64

// Backend is the order history surface of the commerce API.
type Backend interface {
	ListUserOrders(ctx context.Context, token string) ([]storeapi.Order, error)
	GetOrder(ctx context.Context, token string, id types.ID) (*storeapi.Order, error)
	TrackOrder(ctx context.Context, token, trackingCode string) (*storeapi.Order, error)
}

// Sessions resolves the caller's credentials.
type Sessions interface {
	Resolve(ctx context.Context, id string) (*session.Session, error)
	Logout(ctx context.Context, id string) error
}

// List returns the logged in user's orders, newest first as the API sends them.
func List(backend Backend, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := authenticated(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := backend.ListUserOrders(r.Context(), sess.Token)
		if err != nil {
			expire(r.Context(), sessions, sess.ID, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if orders == nil {
			orders = []storeapi.Order{}
		}
		responses.WriteSuccess(w, orders)
	}
}

// Detail returns one order of the logged in user.
func Detail(backend Backend, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := authenticated(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := backend.GetOrder(r.Context(), sess.Token, id)
		if err != nil {
			expire(r.Context(), sessions, sess.ID, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Track looks an order up by its tracking code.
func Track(backend Backend, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := authenticated(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := validators.PathID(r, "trackingCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := backend.TrackOrder(r.Context(), sess.Token, validators.SanitizeString(code.String(), maxTrackingCodeLength))
		if err != nil {
			expire(r.Context(), sessions, sess.ID, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func authenticated(r *http.Request, sessions Sessions) (*session.Session, error) {
	sess, err := sessions.Resolve(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if errors.Is(err, session.ErrNotFound) || (err == nil && !sess.Authenticated()) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to view your orders.")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not load session")
	}
	return sess, nil
}

func expire(ctx context.Context, sessions Sessions, id string, err error) {
	if storeapi.StatusOf(err) == http.StatusUnauthorized {
		_ = sessions.Logout(ctx, id)
	}
}
