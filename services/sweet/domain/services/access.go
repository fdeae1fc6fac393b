package services

import (
	"fmt"

	"github.com/ghuser/sweetshop/pkg/auth"
)

// Operation names an entry point of the sweet catalog guarded by the Gate.
type Operation uint8

const (
	OpList Operation = iota + 1
	OpGet
	OpCreate
	OpUpdate
	OpDelete
	OpPurchase
)

func (o Operation) String() string {
	switch o {
	case OpList:
		return "list"
	case OpGet:
		return "get"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpPurchase:
		return "purchase"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// Gate decides whether a caller may run an operation. It is evaluated before
// any store access, so a denied call never changes the catalog.
//
//	list, get        any authenticated identity (anyone with AnonymousBrowse)
//	create, update,
//	delete           admin only
//	purchase         any authenticated identity
type Gate struct {
	// AnonymousBrowse lets unauthenticated callers list and read sweets.
	AnonymousBrowse bool
}

// Authorize returns nil when caller may perform op, auth.ErrUnauthenticated
// when an identity is required but missing, and auth.ErrForbidden when the
// caller lacks the admin role.
func (g Gate) Authorize(caller auth.Identity, op Operation) error {
	switch op {
	case OpList, OpGet:
		if g.AnonymousBrowse {
			return nil
		}
		return requireAuthenticated(caller)
	case OpPurchase:
		return requireAuthenticated(caller)
	case OpCreate, OpUpdate, OpDelete:
		if err := requireAuthenticated(caller); err != nil {
			return err
		}
		if !caller.IsAdmin() {
			return fmt.Errorf("%w: %s requires admin", auth.ErrForbidden, op)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown %s", auth.ErrForbidden, op)
	}
}

func requireAuthenticated(caller auth.Identity) error {
	if !caller.Authenticated() {
		return auth.ErrUnauthenticated
	}
	return nil
}
