package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Storefront records cart, checkout and confirmation outcomes. A nil receiver
// is a no-op so components can run without a registry.
type Storefront struct {
	cartMutations   *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	checkoutLatency *prometheus.HistogramVec
	confirmations   *prometheus.CounterVec
	backendCalls    *prometheus.HistogramVec
	authThrottled   *prometheus.CounterVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_persist_failures_total",
		Help:      "Failed writes of a cart slot.",
	}, []string{"op"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts by terminal state and failure stage.",
	}, []string{"state", "stage"})
	checkoutLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of checkout attempts.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"state"})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_confirmations_total",
		Help:      "Order confirmation outcomes.",
	}, []string{"outcome"})
	backendCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Commerce API call latency by operation and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "status"})
	authThrottled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_throttled_total",
		Help:      "Sign-in and sign-up attempts refused by the throttle.",
	}, []string{"action", "scope"})
	reg.MustRegister(cartMutations, persistFailures, checkouts, checkoutLatency, confirmations, backendCalls, authThrottled)
	return &Storefront{
		cartMutations:   cartMutations,
		persistFailures: persistFailures,
		checkouts:       checkouts,
		checkoutLatency: checkoutLatency,
		confirmations:   confirmations,
		backendCalls:    backendCalls,
		authThrottled:   authThrottled,
	}
}

// CartMutation counts an accepted or rejected cart operation.
func (m *Storefront) CartMutation(op string, accepted bool) {
	if m == nil || m.cartMutations == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), result).Inc()
}

// CartPersistFailure counts a failed slot write.
func (m *Storefront) CartPersistFailure(op string) {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// CheckoutFinished records a checkout attempt's terminal state.
func (m *Storefront) CheckoutFinished(state, stage string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(state), normalizeLabel(stage)).Inc()
	m.checkoutLatency.WithLabelValues(normalizeLabel(state)).Observe(duration.Seconds())
}

// ConfirmationFinished records an order confirmation outcome.
func (m *Storefront) ConfirmationFinished(outcome string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// BackendCall records one commerce API round trip.
func (m *Storefront) BackendCall(op, status string, duration time.Duration) {
	if m == nil || m.backendCalls == nil {
		return
	}
	m.backendCalls.WithLabelValues(normalizeLabel(op), normalizeLabel(status)).Observe(duration.Seconds())
}

// AuthThrottled counts a refused sign-in or sign-up attempt.
func (m *Storefront) AuthThrottled(action, scope string) {
	if m == nil || m.authThrottled == nil {
		return
	}
	m.authThrottled.WithLabelValues(normalizeLabel(action), normalizeLabel(scope)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
