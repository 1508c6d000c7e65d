package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/gateway"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/payment"
	"github.com/angelmondragon/storefront/pkg/storeapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

// ErrSubmissionInProgress is returned when Submit is called while another
// submission of the same orchestrator is outstanding.
var ErrSubmissionInProgress = pkgerrors.New(pkgerrors.CodeConflict, "a checkout submission is already in progress")

const (
	ReasonNotAuthenticated = "Please log in to proceed with payment."
	ReasonEmptyCart        = "Your cart is empty."
	ReasonMissingAddress   = "Please enter a shipping address."
	ReasonUnsupportedCity  = "Shipping not available to this city."
	ReasonNoGateway        = "Failed to get the payment gateway URL. Please try again."
	ReasonTransactionID    = "Payment payload does not match this order."
	ReasonGeneric          = "Order or payment failed!"
)

// Backend is the part of the commerce API a checkout needs.
type Backend interface {
	CreateOrder(ctx context.Context, token string, req storeapi.CreateOrderRequest) (*storeapi.Order, error)
	InitiatePayment(ctx context.Context, token string, req storeapi.PaymentRequest) (*storeapi.PaymentInitiation, error)
}

// Recorder receives finished attempts.
type Recorder interface {
	CheckoutFinished(state, stage string, duration time.Duration)
}

// Session is the caller identity a checkout runs under.
type Session struct {
	Token  string
	UserID types.ID
}

// Request is the shopper's submission.
type Request struct {
	ShippingAddress string `json:"shipping_address"`
	City            string `json:"city"`
}

// Attempt records one pass through the checkout state machine.
type Attempt struct {
	ID         string                `json:"id"`
	State      enums.CheckoutState   `json:"state"`
	FailedAt   enums.CheckoutState   `json:"failed_at,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	OrderID    types.ID              `json:"order_id,omitempty"`
	Totals     Totals                `json:"totals"`
	Handoff    *gateway.Handoff      `json:"handoff,omitempty"`
	History    []enums.CheckoutState `json:"history"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	err        error
}

// Err is the typed error of a failed attempt.
func (a *Attempt) Err() error {
	if a == nil {
		return nil
	}
	return a.err
}

func (a *Attempt) enter(state enums.CheckoutState) {
	a.State = state
	a.History = append(a.History, state)
}

// Options wires an Orchestrator.
type Options struct {
	Policy  Policy
	Cities  []string
	Logger  *logger.Logger
	Metrics Recorder
	Now     func() time.Time
}

// Orchestrator runs checkout attempts for one session's cart.
type Orchestrator struct {
	cart     *cart.Manager
	backend  Backend
	policy   Policy
	cities   []string
	logg     *logger.Logger
	metrics  Recorder
	now      func() time.Time
	inFlight atomic.Bool

	mu   sync.Mutex
	last *Attempt
}

// NewOrchestrator builds an orchestrator over a cart manager.
func NewOrchestrator(manager *cart.Manager, backend Backend, opts Options) (*Orchestrator, error) {
	if manager == nil {
		return nil, fmt.Errorf("cart manager required")
	}
	if backend == nil {
		return nil, fmt.Errorf("commerce backend required")
	}
	cities := normalizeCities(opts.Cities)
	if len(cities) == 0 {
		return nil, fmt.Errorf("at least one shipping city required")
	}
	o := &Orchestrator{
		cart:    manager,
		backend: backend,
		policy:  opts.Policy,
		cities:  cities,
		logg:    opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if o.policy == (Policy{}) {
		o.policy = DefaultPolicy()
	}
	if o.logg == nil {
		o.logg = logger.Nop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Totals computes the totals of the current cart.
func (o *Orchestrator) Totals() Totals {
	return o.policy.Compute(o.cart.Snapshot())
}

// Policy returns the shipping policy totals are computed with.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Cities returns the accepted shipping cities.
func (o *Orchestrator) Cities() []string {
	out := make([]string, len(o.cities))
	copy(out, o.cities)
	return out
}

// InProgress reports whether a submission is outstanding.
func (o *Orchestrator) InProgress() bool {
	return o.inFlight.Load()
}

// Last returns the most recent finished attempt, or nil.
func (o *Orchestrator) Last() *Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Submit runs one checkout attempt. A concurrent call returns
// ErrSubmissionInProgress without touching the outstanding attempt. A failed
// attempt is returned together with its typed error; the cart is never
// modified here.
func (o *Orchestrator) Submit(ctx context.Context, sess Session, req Request) (*Attempt, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInProgress
	}
	defer o.inFlight.Store(false)

	attempt := &Attempt{
		ID:        uuid.NewString(),
		StartedAt: o.now(),
	}
	attempt.enter(enums.CheckoutStateIdle)
	ctx = o.logg.WithField(ctx, "checkout_attempt", attempt.ID)

	o.run(ctx, sess, req, attempt)

	attempt.FinishedAt = o.now()
	o.mu.Lock()
	o.last = attempt
	o.mu.Unlock()

	if o.metrics != nil {
		stage := attempt.FailedAt.String()
		if stage == "" {
			stage = "none"
		}
		o.metrics.CheckoutFinished(attempt.State.String(), stage, attempt.FinishedAt.Sub(attempt.StartedAt))
	}
	return attempt, attempt.err
}

func (o *Orchestrator) run(ctx context.Context, sess Session, req Request, attempt *Attempt) {
	attempt.enter(enums.CheckoutStateValidating)
	snapshot := o.cart.Snapshot()
	attempt.Totals = o.policy.Compute(snapshot)

	city, reason := o.validate(sess, req, snapshot)
	if reason != "" {
		o.fail(ctx, attempt, pkgerrors.New(pkgerrors.CodeValidation, reason))
		return
	}

	attempt.enter(enums.CheckoutStateCreatingOrder)
	lines := make([]storeapi.OrderLine, 0, snapshot.Len())
	for _, item := range snapshot.Items() {
		lines = append(lines, storeapi.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	order, err := o.backend.CreateOrder(ctx, sess.Token, storeapi.CreateOrderRequest{
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		City:            city,
		Items:           lines,
	})
	if err != nil {
		o.fail(ctx, attempt, backendFailure(err))
		return
	}
	attempt.OrderID = order.ID
	ctx = o.logg.WithOrderID(ctx, order.ID.String())

	attempt.enter(enums.CheckoutStateRequestingPayment)
	initiation, err := o.backend.InitiatePayment(ctx, sess.Token, storeapi.PaymentRequest{
		Amount:  attempt.Totals.GrandTotal,
		OrderID: order.ID,
	})
	if err != nil {
		o.fail(ctx, attempt, backendFailure(err))
		return
	}

	handoff, err := gateway.NewHandoff(initiation.GatewayURL, initiation.Payload)
	if err != nil {
		o.fail(ctx, attempt, pkgerrors.Wrap(pkgerrors.CodeDependency, err, ReasonNoGateway))
		return
	}
	if txn := initiation.TransactionUUID(); txn != "" && !sess.UserID.IsZero() {
		if want := payment.TransactionUUID(order.ID, sess.UserID); txn != want {
			o.fail(ctx, attempt, pkgerrors.New(pkgerrors.CodeDependency, ReasonTransactionID).
				WithDetails(map[string]string{"transaction_uuid": txn, "expected": want}))
			return
		}
	}

	attempt.Handoff = handoff
	attempt.enter(enums.CheckoutStateRedirectingToGateway)
	o.logg.Info(ctx, "checkout handed off to payment gateway")
}

// validate checks, in order: token, cart contents, address, city.
func (o *Orchestrator) validate(sess Session, req Request, snapshot cart.Cart) (string, string) {
	if strings.TrimSpace(sess.Token) == "" {
		return "", ReasonNotAuthenticated
	}
	if snapshot.IsEmpty() {
		return "", ReasonEmptyCart
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return "", ReasonMissingAddress
	}
	city := strings.ToLower(strings.TrimSpace(req.City))
	if city == "" {
		city = o.cities[0]
	}
	for _, allowed := range o.cities {
		if city == allowed {
			return city, ""
		}
	}
	return "", ReasonUnsupportedCity
}

func (o *Orchestrator) fail(ctx context.Context, attempt *Attempt, err error) {
	attempt.FailedAt = attempt.State
	attempt.enter(enums.CheckoutStateFailed)
	attempt.err = err
	attempt.Reason = ReasonGeneric
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		attempt.Reason = typed.Message()
	}
	ctx = o.logg.WithField(ctx, "failed_at", attempt.FailedAt.String())
	if attempt.FailedAt == enums.CheckoutStateValidating {
		o.logg.Info(ctx, "checkout rejected: "+attempt.Reason)
		return
	}
	o.logg.Warn(ctx, "checkout failed: "+err.Error())
}

// backendFailure keeps the commerce API's message and maps everything except
// timeouts and auth failures to a dependency error.
func backendFailure(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, ReasonGeneric)
	}
	switch typed.Code() {
	case pkgerrors.CodeTimeout, pkgerrors.CodeUnauthorized:
		return typed
	}
	message := typed.Message()
	if message == "" || errors.Is(err, context.Canceled) {
		message = ReasonGeneric
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func normalizeCities(cities []string) []string {
	out := make([]string, 0, len(cities))
	seen := make(map[string]struct{}, len(cities))
	for _, city := range cities {
		c := strings.ToLower(strings.TrimSpace(city))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
