package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/sweetshop/services/sweet/domain"
)

// Attributes are the admin-editable fields of a Sweet. An update replaces all
// of them at once.
type Attributes struct {
	Name     SweetName
	Category Category
	Price    Price
	Quantity Quantity
}

// NewAttributes validates raw input. All violations are reported together,
// wrapped in domain.ErrInvalidSweet.
func NewAttributes(name, category string, price decimal.Decimal, quantity int64) (Attributes, error) {
	var (
		a    Attributes
		err  error
		errs []error
	)
	if a.Name, err = NewSweetName(name); err != nil {
		errs = append(errs, err)
	}
	if a.Category, err = NewCategory(category); err != nil {
		errs = append(errs, err)
	}
	if a.Price, err = NewPrice(price); err != nil {
		errs = append(errs, err)
	}
	if a.Quantity, err = NewQuantity(quantity); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Attributes{}, fmt.Errorf("%w: %w", domain.ErrInvalidSweet, errors.Join(errs...))
	}
	return a, nil
}

// Sweet is the core aggregate for this bounded context: one kind of sellable
// confection with its price and stock count.
type Sweet struct {
	ID uuid.UUID
	Attributes
	// Version starts at 1 and increases by one with every committed mutation.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSweet constructs a Sweet with a generated ID and current timestamps.
func NewSweet(attrs Attributes) *Sweet {
	now := time.Now().UTC()
	return &Sweet{
		ID:         uuid.New(),
		Attributes: attrs,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Replace overwrites every editable field.
func (s *Sweet) Replace(attrs Attributes) {
	s.Attributes = attrs
	s.touch()
}

// Purchase removes n units from stock. The sweet is left untouched on error:
// domain.ErrInvalidPurchase when n < 1, domain.ErrInsufficientStock when fewer
// than n units remain. Callers must hold exclusive access to s.
func (s *Sweet) Purchase(n int64) error {
	if err := CheckPurchaseQuantity(n); err != nil {
		return err
	}
	if int64(s.Quantity) < n {
		return fmt.Errorf("%w: requested %d, available %d", domain.ErrInsufficientStock, n, s.Quantity)
	}
	s.Quantity -= Quantity(n)
	s.touch()
	return nil
}

// CheckPurchaseQuantity rejects purchase amounts below one. Stores call it
// before looking the sweet up, so an invalid amount fails the same way for
// known and unknown ids.
func CheckPurchaseQuantity(n int64) error {
	if n < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", domain.ErrInvalidPurchase, n)
	}
	return nil
}

// InStock reports whether at least one unit is available.
func (s *Sweet) InStock() bool {
	return s.Quantity > 0
}

// Clone returns an independent copy.
func (s *Sweet) Clone() *Sweet {
	c := *s
	return &c
}

func (s *Sweet) touch() {
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}
