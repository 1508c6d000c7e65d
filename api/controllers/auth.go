package controllers

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storeapi"
)

// Accounts is the part of the commerce API the auth endpoints proxy.
type Accounts interface {
	Register(ctx context.Context, reg storeapi.Registration) error
	Profile(ctx context.Context, token string) (*storeapi.Profile, error)
}

// CartMover carries a browser's cart over when its session id rotates.
type CartMover interface {
	Rekey(ctx context.Context, from, to string) error
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=128"`
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type sessionView struct {
	Username      string `json:"username,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	IsAdmin       bool   `json:"is_admin"`
	Authenticated bool   `json:"authenticated"`
}

func newSessionView(sess *session.Session) sessionView {
	return sessionView{
		Username:      sess.Username,
		UserID:        sess.UserID.String(),
		IsAdmin:       sess.IsAdmin,
		Authenticated: sess.Authenticated(),
	}
}

// AuthLogin logs the browser in against the commerce API. The session id is
// rotated on success and the anonymous cart follows it to the new id.
func AuthLogin(sessions Sessions, carts CartMover, cookies config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		previous := middleware.SessionIDFromContext(r.Context())
		sess, err := sessions.Login(r.Context(), previous, body.Username, body.Password)
		if err != nil {
			if storeapi.StatusOf(err) == http.StatusUnauthorized || storeapi.StatusOf(err) == http.StatusBadRequest {
				err = pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid username or password.")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rotateSession(r.Context(), w, carts, cookies, logg, previous, sess.ID)
		responses.WriteSuccess(w, newSessionView(sess))
	}
}

// AuthLogout drops the session's credentials and rotates the browser's id.
// The cart stays with the browser.
func AuthLogout(sessions Sessions, carts CartMover, cookies config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		previous := middleware.SessionIDFromContext(r.Context())
		if err := sessions.Logout(r.Context(), previous); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rotateSession(r.Context(), w, carts, cookies, logg, previous, uuid.NewString())
		responses.WriteSuccess(w, map[string]bool{"authenticated": false})
	}
}

// rotateSession moves the cart to next and hands the browser the new id. A
// failed move costs the shopper the anonymous cart but never the login.
func rotateSession(ctx context.Context, w http.ResponseWriter, carts CartMover, cookies config.SessionConfig, logg *logger.Logger, previous, next string) {
	if carts != nil && previous != "" {
		if err := carts.Rekey(ctx, previous, next); err != nil && logg != nil {
			logg.Error(ctx, "moving cart to rotated session failed", err)
		}
	}
	middleware.IssueSessionCookie(w, cookies, next)
}

// AuthProfile returns the logged in user as the commerce API reports it.
func AuthProfile(sessions Sessions, accounts Accounts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := requireSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := accounts.Profile(r.Context(), sess.Token)
		if err != nil {
			expireOnUnauthorized(r.Context(), sessions, sess.ID, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// AuthRegister creates an account. The browser still logs in separately.
func AuthRegister(accounts Accounts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if msg := passwordWeakness(body.Password); msg != "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"password": msg}))
			return
		}

		err := accounts.Register(r.Context(), storeapi.Registration{
			Username: strings.TrimSpace(body.Username),
			Email:    strings.TrimSpace(body.Email),
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"username": strings.TrimSpace(body.Username)})
	}
}

// passwordWeakness names the first missing character class, or "".
func passwordWeakness(password string) string {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
			special = true
		}
	}
	switch {
	case !upper:
		return "must contain an uppercase letter"
	case !lower:
		return "must contain a lowercase letter"
	case !digit:
		return "must contain a number"
	case !special:
		return "must contain a special character (@$!%*?&)"
	}
	return ""
}
