package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ghuser/sweetshop/services/sweet/domain"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   models.SweetName
		wantErr bool
	}{
		{"valid name", "Jelly Beans", false},
		{"punctuation", "Rock-Candy_2!", false},
		{"leading whitespace", " Fudge", true},
		{"trailing whitespace", "Fudge ", true},
		{"consecutive spaces kept", "Jelly  Beans", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSweet(t *testing.T) {
	valid := func() *models.Sweet {
		return models.NewSweet(models.Attributes{
			Name:     "Caramel",
			Category: "Caramel",
			Price:    models.MustPrice("2.00"),
			Quantity: 60,
		})
	}

	tests := []struct {
		name    string
		mutate  func(*models.Sweet) *models.Sweet
		wantErr bool
	}{
		{"valid", func(s *models.Sweet) *models.Sweet { return s }, false},
		{"nil", func(*models.Sweet) *models.Sweet { return nil }, true},
		{"nil id", func(s *models.Sweet) *models.Sweet { s.ID = uuid.Nil; return s }, true},
		{"double space name", func(s *models.Sweet) *models.Sweet { s.Name = "Soft  Caramel"; return s }, true},
		{"negative quantity", func(s *models.Sweet) *models.Sweet { s.Quantity = -1; return s }, true},
		{"zero version", func(s *models.Sweet) *models.Sweet { s.Version = 0; return s }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSweet(tt.mutate(valid()))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSweet error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidSweet) {
				t.Fatalf("expected ErrInvalidSweet, got %v", err)
			}
		})
	}
}
