package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()
	claims := AccessClaims{
		UserID:    types.ID(userID),
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return signed
}

func TestInspectReadsUserID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := mintToken(t, "77", now.Add(time.Hour))

	claims, err := Inspect("Bearer "+token, now)
	require.NoError(t, err)
	assert.Equal(t, types.ID("77"), claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
}

func TestInspectReportsExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := mintToken(t, "77", now.Add(-time.Minute))

	claims, err := Inspect(token, now)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.NotNil(t, claims)
	assert.Equal(t, types.ID("77"), claims.UserID)
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := Inspect("", time.Now())
	require.ErrorIs(t, err, ErrTokenMissing)

	_, err = Inspect("not-a-jwt", time.Now())
	require.Error(t, err)
}

func TestBearerHeader(t *testing.T) {
	assert.Equal(t, "Bearer abc", BearerHeader(" abc "))
}
