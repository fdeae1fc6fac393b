package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for caller identity. Use errors.Is() to check these.
var (
	// ErrUnauthenticated indicates the caller presented no valid identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates the caller is authenticated but lacks the required role.
	ErrForbidden = errors.New("insufficient privileges")

	// ErrUnknownRole indicates a role string that is neither customer nor admin.
	ErrUnknownRole = errors.New("unknown role")
)

// Role is the caller's capability level. The zero value is not a valid role.
type Role uint8

const (
	RoleCustomer Role = iota + 1
	RoleAdmin
)

// ParseRole maps the wire representation ("customer", "admin") to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "user":
		return RoleCustomer, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// RoleFromAdminFlag converts the legacy is_admin boolean into a Role.
func RoleFromAdminFlag(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Identity is the authenticated caller as asserted by the external auth service.
// The zero Identity represents an anonymous caller.
type Identity struct {
	Subject string
	Role    Role
}

// Authenticated reports whether the identity carries a subject and a known role.
func (id Identity) Authenticated() bool {
	return id.Subject != "" && (id.Role == RoleCustomer || id.Role == RoleAdmin)
}

// IsAdmin reports whether the identity holds the admin capability.
func (id Identity) IsAdmin() bool {
	return id.Authenticated() && id.Role == RoleAdmin
}

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const identityKey contextKey = "identity"

// IdentityFromCtx extracts the caller identity from the request context.
// Returns the zero Identity and ErrUnauthenticated if none is set.
func IdentityFromCtx(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || !id.Authenticated() {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}

// WithIdentity returns a new context with the given identity attached.
// Used by authentication middleware after validating the session or token.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
