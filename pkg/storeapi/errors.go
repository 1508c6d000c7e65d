package storeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// GenericFailureMessage is shown when the commerce API gives no usable message.
const GenericFailureMessage = "Something went wrong. Please try again."

// APIError is a non-2xx answer from the commerce API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func statusError(op string, status int, body []byte) error {
	apiErr := &APIError{Op: op, Status: status, Message: MessageFromBody(body)}
	message := apiErr.Message
	if message == "" {
		message = GenericFailureMessage
	}
	return pkgerrors.Wrap(codeForStatus(status), apiErr, message)
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		return pkgerrors.CodeDependency
	}
}

// MessageFromBody extracts the human readable message of an error body. It
// checks error, detail, non_field_errors and message in that order, then the
// first field error of a validation body.
func MessageFromBody(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "non_field_errors", "message"} {
		if raw, ok := fields[key]; ok {
			if msg := firstString(raw); msg != "" {
				return msg
			}
		}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if msg := firstString(fields[key]); msg != "" {
			return key + ": " + msg
		}
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// StatusOf returns the HTTP status of a commerce API error, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
