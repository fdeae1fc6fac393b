package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"
)

// TokenVerifier validates HS256 bearer tokens minted by the auth service.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns a verifier for the shared signing secret.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("empty signing secret")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

// Verify parses token and returns the identity it asserts.
// Accepted claims: "sub" (required), and either "role" or the legacy "is_admin" flag.
// Expiry ("exp") is enforced by the jwt library when present.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: unexpected claims", ErrUnauthenticated)
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	role := RoleCustomer
	if s, ok := claims["role"].(string); ok {
		if role, err = ParseRole(s); err != nil {
			return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
	} else if isAdmin, ok := claims["is_admin"].(bool); ok {
		role = RoleFromAdminFlag(isAdmin)
	}

	return Identity{Subject: subject, Role: role}, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
