// Package services contains stateless domain services for the sweet bounded context.
// Domain services enforce rules that operate purely on domain types.
package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ghuser/sweetshop/services/sweet/domain"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
)

// ValidateName rejects names that skipped the constructor's trimming. Inner
// whitespace is left as the admin typed it.
func ValidateName(name models.SweetName) error {
	s := name.String()
	if s == "" {
		return fmt.Errorf("name must not be empty")
	}
	if s != strings.TrimSpace(s) {
		return fmt.Errorf("name must not have leading or trailing whitespace")
	}
	return nil
}

// ValidateSweet performs checks on a fully constructed Sweet before it is
// persisted. Failures wrap domain.ErrInvalidSweet.
func ValidateSweet(s *models.Sweet) error {
	if s == nil {
		return fmt.Errorf("%w: sweet cannot be nil", domain.ErrInvalidSweet)
	}
	if s.ID == uuid.Nil {
		return fmt.Errorf("%w: id must be set", domain.ErrInvalidSweet)
	}
	if err := ValidateName(s.Name); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidSweet, err)
	}
	if s.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidSweet)
	}
	if s.Price.Decimal().IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidSweet)
	}
	if s.Version < 1 {
		return fmt.Errorf("%w: version must be positive", domain.ErrInvalidSweet)
	}
	return nil
}
