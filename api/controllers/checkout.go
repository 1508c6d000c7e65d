package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/workspace"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type checkoutOverview struct {
	Totals     checkout.Totals   `json:"totals"`
	Cities     []string          `json:"cities"`
	InProgress bool              `json:"in_progress"`
	Last       *checkout.Attempt `json:"last_attempt,omitempty"`
}

// CheckoutSubmit runs one checkout attempt for the browser's cart. Browsers
// asking for HTML get the auto-submitting gateway form; other callers get
// the attempt with the handoff fields.
func CheckoutSubmit(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkout.Request
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := currentSession(r.Context(), sessions, ws.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attempt, err := ws.Checkout.Submit(r.Context(), checkout.Session{Token: sess.Token, UserID: sess.UserID}, body)
		if errors.Is(err, checkout.ErrSubmissionInProgress) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
				_ = sessions.Logout(r.Context(), ws.SessionID)
			}
			responses.WriteError(r.Context(), logg, w, withAttempt(err, attempt))
			return
		}

		if wantsHTML(r) {
			var page bytes.Buffer
			if err := attempt.Handoff.Render(&page); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render gateway handoff"))
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(page.Bytes())
			return
		}
		responses.WriteSuccess(w, attempt)
	}
}

// CheckoutOverview reports the totals, the shipping cities and the last attempt.
func CheckoutOverview(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkoutOverview{
			Totals:     ws.Checkout.Totals(),
			Cities:     ws.Checkout.Cities(),
			InProgress: ws.Checkout.InProgress(),
			Last:       ws.Checkout.Last(),
		})
	}
}

// withAttempt attaches the failed attempt's progress to the error details.
func withAttempt(err error, attempt *checkout.Attempt) error {
	typed := pkgerrors.As(err)
	if typed == nil || attempt == nil || typed.Details() != nil {
		return err
	}
	details := map[string]any{
		"attempt_id": attempt.ID,
		"failed_at":  attempt.FailedAt.String(),
	}
	if !attempt.OrderID.IsZero() {
		details["order_id"] = attempt.OrderID.String()
	}
	return pkgerrors.Wrap(typed.Code(), err, typed.Message()).WithDetails(details)
}

func workspaceFrom(r *http.Request) (*workspace.Workspace, error) {
	ws := middleware.WorkspaceFromContext(r.Context())
	if ws == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart workspace missing")
	}
	return ws, nil
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
