package auth

import (
	"context"
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"ADMIN", RoleAdmin, false},
		{" customer ", RoleCustomer, false},
		{"user", RoleCustomer, false},
		{"", 0, true},
		{"root", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr = %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownRole) {
				t.Fatalf("expected ErrUnknownRole, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoleFromAdminFlag(t *testing.T) {
	if RoleFromAdminFlag(true) != RoleAdmin {
		t.Fatal("expected RoleAdmin for is_admin=true")
	}
	if RoleFromAdminFlag(false) != RoleCustomer {
		t.Fatal("expected RoleCustomer for is_admin=false")
	}
}

func TestIdentity_Authenticated(t *testing.T) {
	tests := []struct {
		name    string
		id      Identity
		authn   bool
		isAdmin bool
	}{
		{"zero", Identity{}, false, false},
		{"subject without role", Identity{Subject: "u1"}, false, false},
		{"role without subject", Identity{Role: RoleAdmin}, false, false},
		{"customer", Identity{Subject: "u1", Role: RoleCustomer}, true, false},
		{"admin", Identity{Subject: "u1", Role: RoleAdmin}, true, true},
		{"out of range role", Identity{Subject: "u1", Role: Role(9)}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Authenticated(); got != tt.authn {
				t.Fatalf("Authenticated() = %v, want %v", got, tt.authn)
			}
			if got := tt.id.IsAdmin(); got != tt.isAdmin {
				t.Fatalf("IsAdmin() = %v, want %v", got, tt.isAdmin)
			}
		})
	}
}

func TestWithIdentity_IdentityFromCtx(t *testing.T) {
	want := Identity{Subject: "admin@sweetshop.com", Role: RoleAdmin}
	ctx := WithIdentity(context.Background(), want)

	got, err := IdentityFromCtx(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestIdentityFromCtx_EmptyContext(t *testing.T) {
	_, err := IdentityFromCtx(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestIdentityFromCtx_AnonymousIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{})
	_, err := IdentityFromCtx(ctx)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for zero identity, got %v", err)
	}
}
