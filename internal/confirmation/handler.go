// Package confirmation finishes an order after the shopper returns from the
// payment gateway: it confirms the payment, loads the order and clears the cart.
package confirmation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/gateway"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/payment"
	"github.com/angelmondragon/storefront/pkg/storeapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	DefaultTimeout = 10 * time.Second

	MessageMissingInfo   = "Missing payment or user info."
	MessageConfirmFailed = "Payment confirmation failed."
	MessageLoadFailed    = "Failed to confirm payment or load order."
	MessageTimedOut      = "Something took too long. Please check your order manually."
	MessageCancelled     = "The confirmation request was cancelled."
)

// Backend is the part of the commerce API a confirmation needs.
type Backend interface {
	ConfirmPayment(ctx context.Context, token string, orderID types.ID, transactionUUID string) (*storeapi.PaymentConfirmation, error)
	GetOrder(ctx context.Context, token string, id types.ID) (*storeapi.Order, error)
}

// Identity is the resolved shopper.
type Identity struct {
	Token  string
	UserID types.ID
}

// SessionResolver resolves the shopper behind the returning browser. It may
// block while the user profile is fetched.
type SessionResolver interface {
	ResolveIdentity(ctx context.Context) (Identity, error)
}

// CartClearer empties the shopper's cart.
type CartClearer interface {
	Clear(ctx context.Context)
}

// Recorder receives confirmation outcomes.
type Recorder interface {
	ConfirmationFinished(outcome string)
}

// Result is what the shopper sees.
type Result struct {
	State       enums.ConfirmationState `json:"state"`
	Message     string                  `json:"message,omitempty"`
	OrderID     types.ID                `json:"order_id,omitempty"`
	ReferenceID string                  `json:"reference_id,omitempty"`
	Order       *storeapi.Order         `json:"order,omitempty"`
	err         error
}

// Err is the typed error behind a failed or timed out result.
func (r Result) Err() error {
	return r.err
}

// Options wires a Handler.
type Options struct {
	Timeout time.Duration
	Logger  *logger.Logger
	Metrics Recorder
}

// Handler confirms returning orders.
type Handler struct {
	backend Backend
	timeout time.Duration
	logg    *logger.Logger
	metrics Recorder
}

func NewHandler(backend Backend, opts Options) (*Handler, error) {
	if backend == nil {
		return nil, fmt.Errorf("commerce backend required")
	}
	h := &Handler{
		backend: backend,
		timeout: opts.Timeout,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}
	if h.timeout <= 0 {
		h.timeout = DefaultTimeout
	}
	if h.logg == nil {
		h.logg = logger.Nop()
	}
	return h, nil
}

// view tracks whether anyone is still waiting for the result.
type view struct {
	alive atomic.Bool
}

func (v *view) live() bool {
	return v.alive.Load()
}

func (v *view) teardown() {
	v.alive.Store(false)
}

// Confirm runs the confirmation sequence, waiting at most the configured
// timeout. The backend calls run detached from ctx and keep going after a
// timeout; a confirmed payment still clears the cart, but the late result is
// dropped.
func (h *Handler) Confirm(ctx context.Context, resolver SessionResolver, cart CartClearer, params gateway.ReturnParams) Result {
	ctx = h.logg.WithFields(ctx, map[string]any{
		"order_id":     params.OrderID.String(),
		"reference_id": params.ReferenceID,
		"return_state": params.Status,
	})

	v := &view{}
	v.alive.Store(true)
	done := make(chan Result, 1)
	work := context.WithoutCancel(ctx)
	go func() {
		done <- h.run(work, v, resolver, cart, params)
	}()

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	var res Result
	select {
	case res = <-done:
	case <-timer.C:
		res = Result{
			State:       enums.ConfirmationStateTimedOut,
			Message:     MessageTimedOut,
			OrderID:     params.OrderID,
			ReferenceID: params.ReferenceID,
			err:         pkgerrors.New(pkgerrors.CodeTimeout, MessageTimedOut),
		}
		h.logg.Warn(ctx, "order confirmation timed out")
	case <-ctx.Done():
		res = Result{
			State:   enums.ConfirmationStateFailed,
			Message: MessageCancelled,
			OrderID: params.OrderID,
			err:     pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), MessageCancelled),
		}
	}
	v.teardown()
	h.record(res.State.String())
	return res
}

func (h *Handler) run(ctx context.Context, v *view, resolver SessionResolver, cart CartClearer, params gateway.ReturnParams) Result {
	// A return link without ids is answered before the session is touched.
	if params.OrderID.IsZero() || params.ReferenceID == "" {
		return missingInfo(params)
	}

	var ident Identity
	if resolver != nil {
		resolved, err := resolver.ResolveIdentity(ctx)
		if err != nil {
			h.logg.Warn(ctx, "session resolution failed: "+err.Error())
		} else {
			ident = resolved
		}
	}
	if !v.live() {
		return Result{}
	}

	if ident.UserID.IsZero() || ident.Token == "" {
		return missingInfo(params)
	}
	ctx = h.logg.WithUserID(ctx, ident.UserID.String())

	txn := payment.TransactionUUID(params.OrderID, ident.UserID)
	if _, err := h.backend.ConfirmPayment(ctx, ident.Token, params.OrderID, txn); err != nil {
		return h.failed(ctx, v, params, err, MessageConfirmFailed)
	}

	order, err := h.backend.GetOrder(ctx, ident.Token, params.OrderID)
	if err != nil {
		return h.failed(ctx, v, params, err, MessageLoadFailed)
	}

	if cart != nil {
		cart.Clear(ctx)
	}
	if !v.live() {
		h.logg.Info(ctx, "payment confirmed after the shopper stopped waiting; cart cleared")
		h.record("late_success")
		return Result{}
	}
	h.logg.Info(ctx, "payment confirmed")
	return Result{
		State:       enums.ConfirmationStateSucceeded,
		OrderID:     order.ID,
		ReferenceID: params.ReferenceID,
		Order:       order,
	}
}

func missingInfo(params gateway.ReturnParams) Result {
	return Result{
		State:       enums.ConfirmationStateFailed,
		Message:     MessageMissingInfo,
		OrderID:     params.OrderID,
		ReferenceID: params.ReferenceID,
		err:         pkgerrors.New(pkgerrors.CodeValidation, MessageMissingInfo),
	}
}

func (h *Handler) failed(ctx context.Context, v *view, params gateway.ReturnParams, err error, fallback string) Result {
	h.logg.Warn(ctx, "order confirmation failed: "+err.Error())
	if !v.live() {
		h.record("late_failure")
		return Result{}
	}
	message := fallback
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" && storeapi.StatusOf(err) != 0 {
		message = typed.Message()
	}
	code := pkgerrors.CodeDependency
	if pkgerrors.HasCode(err, pkgerrors.CodeTimeout) {
		code = pkgerrors.CodeTimeout
	}
	return Result{
		State:       enums.ConfirmationStateFailed,
		Message:     message,
		OrderID:     params.OrderID,
		ReferenceID: params.ReferenceID,
		err:         pkgerrors.Wrap(code, err, message),
	}
}

func (h *Handler) record(outcome string) {
	if h.metrics != nil {
		h.metrics.ConfirmationFinished(outcome)
	}
}
