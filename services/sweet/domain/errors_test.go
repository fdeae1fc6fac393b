package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrSweetNotFound, "sweet not found"},
		{ErrSweetAlreadyExists, "sweet already exists"},
		{ErrInvalidSweet, "invalid sweet"},
		{ErrInvalidPurchase, "invalid purchase"},
		{ErrInsufficientStock, "insufficient stock"},
	}
	for _, tt := range tests {
		if tt.err == nil {
			t.Fatalf("sentinel for %q must not be nil", tt.want)
		}
		if tt.err.Error() != tt.want {
			t.Fatalf("unexpected message: %q, want %q", tt.err.Error(), tt.want)
		}
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	all := []error{ErrSweetNotFound, ErrSweetAlreadyExists, ErrInvalidSweet, ErrInvalidPurchase, ErrInsufficientStock}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	wrapped := fmt.Errorf("purchase sweet: %w", ErrInsufficientStock)
	if !errors.Is(wrapped, ErrInsufficientStock) {
		t.Fatal("errors.Is must match wrapped ErrInsufficientStock")
	}

	wrapped2 := fmt.Errorf("%w: %w", ErrInvalidSweet, errors.New("price must not be negative"))
	if !errors.Is(wrapped2, ErrInvalidSweet) {
		t.Fatal("errors.Is must match double-wrapped ErrInvalidSweet")
	}
}
