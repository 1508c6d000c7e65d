package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMissing = errors.New("access token missing")
	ErrTokenExpired = errors.New("access token expired")
)

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Inspect decodes the access token without verifying its signature. The
// storefront never trusts these claims for authorization (the commerce API
// re-verifies every call); it only reads the user id and expiry to decide
// whether a session is worth presenting as authenticated.
func Inspect(token string, now time.Time) (*AccessClaims, error) {
	raw := strings.TrimSpace(token)
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims := &AccessClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}

	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

// BearerHeader formats the Authorization header value for a token.
func BearerHeader(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}
