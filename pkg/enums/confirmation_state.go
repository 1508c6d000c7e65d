package enums

import "fmt"

// ConfirmationState is the outcome of confirming an order after the gateway.
type ConfirmationState string

const (
	ConfirmationStatePending   ConfirmationState = "pending"
	ConfirmationStateSucceeded ConfirmationState = "succeeded"
	ConfirmationStateFailed    ConfirmationState = "failed"
	ConfirmationStateTimedOut  ConfirmationState = "timed_out"
)

var validConfirmationStates = []ConfirmationState{
	ConfirmationStatePending,
	ConfirmationStateSucceeded,
	ConfirmationStateFailed,
	ConfirmationStateTimedOut,
}

// String implements fmt.Stringer.
func (s ConfirmationState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConfirmationState.
func (s ConfirmationState) IsValid() bool {
	for _, candidate := range validConfirmationStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConfirmationState converts raw input into a ConfirmationState.
func ParseConfirmationState(value string) (ConfirmationState, error) {
	for _, candidate := range validConfirmationStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid confirmation state %q", value)
}
