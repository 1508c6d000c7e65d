package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Throttled account actions. The value is part of the counter key and the
// metric label.
const (
	ActionSignIn = "sign_in"
	ActionSignUp = "sign_up"
)

const (
	scopeClient  = "client"
	scopeAccount = "account"

	throttleKeyPrefix = "throttle"
	maxThrottledBody  = 64 << 10
)

// RateLimiterStore counts attempts per key within a window.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// ThrottleRecorder counts rejected attempts by action and scope.
type ThrottleRecorder interface {
	AuthThrottled(action, scope string)
}

// AuthThrottle caps sign-in or sign-up attempts per client address and per
// username within Window. A zero limit turns that scope off.
type AuthThrottle struct {
	Action     string
	Window     time.Duration
	PerClient  int
	PerAccount int
}

func (t AuthThrottle) enabled() bool {
	return t.Window > 0 && (t.PerClient > 0 || t.PerAccount > 0)
}

// key builds e.g. throttle:sign_in:client:203.0.113.9. The store adds its
// own namespace.
func (t AuthThrottle) key(scope, subject string) string {
	return strings.Join([]string{throttleKeyPrefix, t.Action, scope, subject}, ":")
}

// message is the shopper-facing refusal.
func (t AuthThrottle) message(scope string) string {
	wait := waitPhrase(t.Window)
	switch {
	case t.Action == ActionSignUp:
		return fmt.Sprintf("Too many sign-up attempts from this connection. Please wait %s before creating another account.", wait)
	case scope == scopeAccount:
		return fmt.Sprintf("Too many sign-in attempts for this account. Please wait %s and try again, or reset your password.", wait)
	}
	return fmt.Sprintf("Too many sign-in attempts. Please wait %s and try again.", wait)
}

func waitPhrase(window time.Duration) string {
	switch minutes := int(window.Round(time.Minute) / time.Minute); {
	case window < time.Minute:
		return "a moment"
	case minutes <= 1:
		return "a minute"
	default:
		return strconv.Itoa(minutes) + " minutes"
	}
}

// ThrottleAuth guards a sign-in or sign-up endpoint. The client counter runs
// first so a flood of distinct usernames still trips it. A nil store turns
// the guard off, and a failing store lets the attempt through so a Redis
// outage never locks shoppers out of their accounts.
func ThrottleAuth(t AuthThrottle, store RateLimiterStore, rec ThrottleRecorder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !t.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if t.PerClient > 0 {
				if ip := clientIP(r); ip != "" {
					if !t.admit(ctx, w, store, rec, logg, scopeClient, ip, t.PerClient) {
						return
					}
				}
			}

			if t.PerAccount > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottledBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if username := accountName(body); username != "" {
					if !t.admit(ctx, w, store, rec, logg, scopeAccount, accountDigest(username), t.PerAccount) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// admit counts one attempt and writes the 429 when it is over the limit.
func (t AuthThrottle) admit(ctx context.Context, w http.ResponseWriter, store RateLimiterStore, rec ThrottleRecorder, logg *logger.Logger, scope, subject string, limit int) bool {
	count, err := store.IncrWithTTL(ctx, t.key(scope, subject), t.Window)
	if err != nil {
		if logg != nil {
			logg.Error(logg.WithField(ctx, "throttle_action", t.Action), "throttle counter unavailable, admitting attempt", err)
		}
		return true
	}
	if count <= int64(limit) {
		return true
	}

	if rec != nil {
		rec.AuthThrottled(t.Action, scope)
	}
	if logg != nil {
		fields := map[string]any{
			"throttle_action": t.Action,
			"throttle_scope":  scope,
			"attempts":        count,
			"limit":           limit,
		}
		if scope == scopeClient {
			fields["client_ip"] = subject
		}
		logg.Warn(logg.WithFields(ctx, fields), "account attempt throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(t.Window.Round(time.Second)/time.Second)))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, t.message(scope)).
		WithDetails(map[string]any{"retry_after_seconds": int(t.Window.Seconds())}))
	return false
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// accountName reads the username both auth forms carry, case-folded the way
// the commerce API matches accounts.
func accountName(payload []byte) string {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Username))
}

// accountDigest keeps usernames out of Redis keys and logs.
func accountDigest(username string) string {
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:12])
}
