package identity

import "github.com/golang-jwt/jwt/v5"

// UserClaims combines standard claims with the caller's role
type UserClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}
