package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/attendease/core"
)

const (
	// DefaultIssuer is the expected iss claim of bearer tokens
	DefaultIssuer = "attendease"

	leeway = 5 * time.Second
)

// JWTResolver implements the IdentityResolver interface using HS256 JWTs
type JWTResolver struct {
	secret []byte
	issuer string
}

// NewJWTResolver creates a new JWT identity resolver
func NewJWTResolver(secret, issuer string) *JWTResolver {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &JWTResolver{secret: []byte(secret), issuer: issuer}
}

// Resolve validates the bearer token and returns the identity it carries
func (r *JWTResolver) Resolve(ctx context.Context, bearer string) (*core.Identity, error) {
	const op = "identity.JWTResolver.Resolve"

	if bearer == "" {
		return nil, core.ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(bearer, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithIssuer(r.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: token expired: %w", op, core.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%s: %w", op, core.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, core.ErrUnauthenticated)
	}

	role := core.Role(claims.Role)
	switch role {
	case core.RoleStudent, core.RoleFaculty, core.RoleAdmin:
	default:
		return nil, fmt.Errorf("%s: unknown role %q: %w", op, claims.Role, core.ErrUnauthenticated)
	}

	return &core.Identity{UserID: claims.Subject, Role: role}, nil
}

// Mint signs a bearer token for the identity valid for ttl
func (r *JWTResolver) Mint(id core.Identity, now time.Time, ttl time.Duration) (string, error) {
	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(id.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign bearer token: %w", err)
	}
	return signed, nil
}
