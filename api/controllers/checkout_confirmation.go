package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/confirmation"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/gateway"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const messagePaymentFailed = "Sorry, your payment could not be completed."

// Confirmer finishes orders returning from the payment gateway.
type Confirmer interface {
	Confirm(ctx context.Context, resolver confirmation.SessionResolver, cart confirmation.CartClearer, params gateway.ReturnParams) confirmation.Result
}

// OrderSuccess is where the gateway sends the browser back after payment.
func OrderSuccess(confirmer Confirmer, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := workspaceFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := gateway.ParseReturn(r.URL.Query())
		result := confirmer.Confirm(r.Context(), sessionIdentity{sessions: sessions, id: ws.SessionID}, ws.Cart, params)

		if wantsHTML(r) {
			status := http.StatusOK
			data := orderPageData{Title: "Order Confirmed", Result: result, Link: "/orders", LinkText: "View your orders"}
			if result.State != enums.ConfirmationStateSucceeded {
				status = pkgerrors.MetadataFor(codeOf(result.Err())).HTTPStatus
				data = orderPageData{Title: "Order Not Confirmed", Message: result.Message, Result: result, Link: "/orders", LinkText: "Check your orders"}
			}
			if err := renderOrderPage(w, status, data); err != nil && logg != nil {
				logg.Error(r.Context(), "render order page failed", err)
			}
			return
		}

		if result.State != enums.ConfirmationStateSucceeded {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderFailure is where the gateway sends the browser when payment was
// declined or abandoned. Nothing is sent to the commerce API.
func OrderFailure(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		message := messagePaymentFailed
		if detail := validators.SanitizeString(r.URL.Query().Get("error"), 200); detail != "" {
			message = detail
		}
		result := confirmation.Result{
			State:       enums.ConfirmationStateFailed,
			Message:     message,
			ReferenceID: validators.SanitizeString(r.URL.Query().Get("reference_id"), 100),
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "reason", message), "shopper returned from a failed payment")
		}

		if wantsHTML(r) {
			if err := renderOrderPage(w, http.StatusOK, orderPageData{Title: "Payment Failed", Message: message, Result: result, Link: "/checkout", LinkText: "Try Again"}); err != nil && logg != nil {
				logg.Error(r.Context(), "render order page failed", err)
			}
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
