package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/storefront/internal/session"
)

type stubResolver map[string]*session.Session

func (s stubResolver) Resolve(_ context.Context, id string) (*session.Session, error) {
	sess, ok := s[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func TestRequireAdmin(t *testing.T) {
	sessions := stubResolver{
		"shopper": {ID: "shopper", Token: "tok", UserID: "7"},
		"staff":   {ID: "staff", Token: "stafftok", UserID: "1", IsAdmin: true},
		"anon":    {ID: "anon"},
	}
	cases := []struct {
		sessionID string
		status    int
	}{
		{"", http.StatusUnauthorized},
		{"anon", http.StatusUnauthorized},
		{"shopper", http.StatusForbidden},
		{"staff", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run("session "+tc.sessionID, func(t *testing.T) {
			var seen *session.Session
			handler := RequireAdmin(sessions, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = SessionFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			req = req.WithContext(WithSessionID(req.Context(), tc.sessionID))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				if assert.NotNil(t, seen) {
					assert.Equal(t, "stafftok", seen.Token)
				}
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}
