package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxSweetNameLength = 255
	maxCategoryLength  = 100

	// PriceScale is the number of fractional digits kept for prices.
	PriceScale = 2

	// MaxQuantity is the largest stock count the store column can hold.
	MaxQuantity = math.MaxInt32
)

// maxPrice is the largest value a NUMERIC(10,2) column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// SweetName is a value object representing a display name, 1..255 characters
// after surrounding whitespace is trimmed.
type SweetName string

// NewSweetName trims s and validates it.
func NewSweetName(s string) (SweetName, error) {
	s, err := label(s, maxSweetNameLength)
	if err != nil {
		return "", fmt.Errorf("name %w", err)
	}
	return SweetName(s), nil
}

// String returns the underlying string value.
func (n SweetName) String() string {
	return string(n)
}

// Category is a free-form classification label, 1..100 characters.
type Category string

// NewCategory trims s and validates it.
func NewCategory(s string) (Category, error) {
	s, err := label(s, maxCategoryLength)
	if err != nil {
		return "", fmt.Errorf("category %w", err)
	}
	return Category(s), nil
}

// String returns the underlying string value.
func (c Category) String() string {
	return string(c)
}

func label(s string, maxLen int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("must not be empty")
	}
	if utf8.RuneCountInString(s) > maxLen {
		return "", fmt.Errorf("must not exceed %d characters", maxLen)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", errors.New("must not contain control characters")
		}
	}
	return s, nil
}

// Price is a non-negative monetary amount held at two decimal places.
// Rounding happens once, at construction, so the in-memory value always
// equals what the store persists and what clients are shown.
type Price struct {
	d decimal.Decimal
}

// NewPrice rounds d half away from zero to two places and validates the range.
func NewPrice(d decimal.Decimal) (Price, error) {
	if d.IsNegative() {
		return Price{}, errors.New("price must not be negative")
	}
	d = d.Round(PriceScale)
	if d.GreaterThan(maxPrice) {
		return Price{}, fmt.Errorf("price must not exceed %s", maxPrice.StringFixed(PriceScale))
	}
	return Price{d: d}, nil
}

// MustPrice parses s as a price and panics on failure. Intended for seeds and tests.
func MustPrice(s string) Price {
	p, err := NewPrice(decimal.RequireFromString(s))
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the underlying decimal value.
func (p Price) Decimal() decimal.Decimal {
	return p.d
}

// String renders the price with exactly two fractional digits, e.g. "1.50".
func (p Price) String() string {
	return p.d.StringFixed(PriceScale)
}

// Equal reports whether two prices hold the same amount.
func (p Price) Equal(o Price) bool {
	return p.d.Equal(o.d)
}

// Quantity is a non-negative count of units in stock.
type Quantity int64

// NewQuantity validates n as a stock count.
func NewQuantity(n int64) (Quantity, error) {
	if n < 0 {
		return 0, errors.New("quantity must not be negative")
	}
	if n > MaxQuantity {
		return 0, fmt.Errorf("quantity must not exceed %d", MaxQuantity)
	}
	return Quantity(n), nil
}

// ParseWholeNumber parses a JSON number literal that must denote an integer.
// "5" and "5.0" are accepted; "5.5" and "abc" are not. Fractional input is
// rejected rather than truncated.
func ParseWholeNumber(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return d.IntPart(), nil
}
