package enums

import "fmt"

// CheckoutState is a step of a checkout attempt.
type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "idle"
	CheckoutStateValidating           CheckoutState = "validating"
	CheckoutStateCreatingOrder        CheckoutState = "creating_order"
	CheckoutStateRequestingPayment    CheckoutState = "requesting_payment"
	CheckoutStateRedirectingToGateway CheckoutState = "redirecting_to_gateway"
	CheckoutStateFailed               CheckoutState = "failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateValidating,
	CheckoutStateCreatingOrder,
	CheckoutStateRequestingPayment,
	CheckoutStateRedirectingToGateway,
	CheckoutStateFailed,
}

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutState.
func (s CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether an attempt in this state has finished.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateRedirectingToGateway || s == CheckoutStateFailed
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
