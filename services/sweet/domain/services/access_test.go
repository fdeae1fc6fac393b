package services

import (
	"errors"
	"testing"

	"github.com/ghuser/sweetshop/pkg/auth"
)

func TestGate_Authorize(t *testing.T) {
	var (
		anonymous = auth.Identity{}
		customer  = auth.Identity{Subject: "u-1", Role: auth.RoleCustomer}
		admin     = auth.Identity{Subject: "a-1", Role: auth.RoleAdmin}
		noRole    = auth.Identity{Subject: "u-2"}
	)

	tests := []struct {
		name    string
		gate    Gate
		caller  auth.Identity
		op      Operation
		wantErr error
	}{
		{"customer lists", Gate{}, customer, OpList, nil},
		{"customer reads", Gate{}, customer, OpGet, nil},
		{"customer purchases", Gate{}, customer, OpPurchase, nil},
		{"customer creates", Gate{}, customer, OpCreate, auth.ErrForbidden},
		{"customer updates", Gate{}, customer, OpUpdate, auth.ErrForbidden},
		{"customer deletes", Gate{}, customer, OpDelete, auth.ErrForbidden},

		{"admin lists", Gate{}, admin, OpList, nil},
		{"admin creates", Gate{}, admin, OpCreate, nil},
		{"admin updates", Gate{}, admin, OpUpdate, nil},
		{"admin deletes", Gate{}, admin, OpDelete, nil},
		{"admin purchases", Gate{}, admin, OpPurchase, nil},

		{"anonymous lists", Gate{}, anonymous, OpList, auth.ErrUnauthenticated},
		{"anonymous purchases", Gate{}, anonymous, OpPurchase, auth.ErrUnauthenticated},
		{"anonymous creates", Gate{}, anonymous, OpCreate, auth.ErrUnauthenticated},
		{"subject without role", Gate{}, noRole, OpPurchase, auth.ErrUnauthenticated},

		{"anonymous browse list", Gate{AnonymousBrowse: true}, anonymous, OpList, nil},
		{"anonymous browse get", Gate{AnonymousBrowse: true}, anonymous, OpGet, nil},
		{"anonymous browse still cannot purchase", Gate{AnonymousBrowse: true}, anonymous, OpPurchase, auth.ErrUnauthenticated},
		{"anonymous browse still cannot delete", Gate{AnonymousBrowse: true}, anonymous, OpDelete, auth.ErrUnauthenticated},

		{"unknown operation", Gate{}, admin, Operation(0), auth.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gate.Authorize(tt.caller, tt.op)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOperation_String(t *testing.T) {
	if OpPurchase.String() != "purchase" {
		t.Fatalf("got %q", OpPurchase.String())
	}
	if Operation(99).String() != "operation(99)" {
		t.Fatalf("got %q", Operation(99).String())
	}
}
