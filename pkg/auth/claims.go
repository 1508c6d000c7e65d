package auth

import (
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims mirrors the claims the commerce API puts in its access tokens.
type AccessClaims struct {
	UserID    types.ID `json:"user_id"`
	TokenType string   `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}
