package domain

import "errors"

// Sentinel errors for the sweet domain. Use errors.Is() to check these.
var (
	// ErrSweetNotFound indicates the requested sweet does not exist.
	ErrSweetNotFound = errors.New("sweet not found")

	// ErrSweetAlreadyExists indicates an insert collided with an existing ID.
	ErrSweetAlreadyExists = errors.New("sweet already exists")

	// ErrInvalidSweet indicates a name, category, price or quantity violates domain constraints.
	ErrInvalidSweet = errors.New("invalid sweet")

	// ErrInvalidPurchase indicates a purchase request with a quantity below one.
	ErrInvalidPurchase = errors.New("invalid purchase")

	// ErrInsufficientStock indicates a purchase asks for more units than are in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)
