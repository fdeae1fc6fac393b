package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sweetdomain "github.com/ghuser/sweetshop/services/sweet/domain"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
)

// SweetRequest is the body for POST /sweets and PUT /sweets/{id}. Every field
// is required; an update replaces all of them.
type SweetRequest struct {
	Name     string           `json:"name"     validate:"required,notblank,max=255" example:"Toffee"`
	Category string           `json:"category" validate:"required,notblank,max=100" example:"Hard Candy"`
	Price    *decimal.Decimal `json:"price"    validate:"required" swaggertype:"string" example:"1.50"`
	Quantity *json.Number     `json:"quantity" validate:"required" swaggertype:"integer" example:"10"`
} // @name SweetRequest

// PurchaseRequest is the optional body for POST /sweets/{id}/purchase.
type PurchaseRequest struct {
	Quantity *json.Number `json:"quantity,omitempty" swaggertype:"integer" example:"2"`
} // @name PurchaseRequest

// SweetResponse is the public shape of a sweet. Price is a string with two
// fractional digits.
type SweetResponse struct {
	ID        uuid.UUID `json:"id"         example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string    `json:"name"       example:"Toffee"`
	Category  string    `json:"category"   example:"Hard Candy"`
	Price     string    `json:"price"      example:"1.50"`
	Quantity  int64     `json:"quantity"   example:"10"`
	Version   int64     `json:"version"    example:"1"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
} // @name SweetResponse

// PurchaseResponse is the sweet after the purchase plus the units bought.
type PurchaseResponse struct {
	SweetResponse
	Purchased int64 `json:"purchased" example:"2"`
} // @name PurchaseResponse

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Msg string `json:"msg" example:"deleted"`
} // @name DeleteResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"sweet not found"`
} // @name ErrorResponse

func toResponse(s *models.Sweet) SweetResponse {
	return SweetResponse{
		ID:        s.ID,
		Name:      s.Name.String(),
		Category:  s.Category.String(),
		Price:     s.Price.String(),
		Quantity:  int64(s.Quantity),
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// sweetID parses the {id} URL parameter. A malformed id cannot name a stored
// sweet, so it is reported as not found.
func sweetID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a sweet id", sweetdomain.ErrSweetNotFound, chi.URLParam(r, "id"))
	}
	return id, nil
}

func (req *SweetRequest) input() (appsvcs.SweetInput, error) {
	qty, err := models.ParseWholeNumber(req.Quantity.String())
	if err != nil {
		return appsvcs.SweetInput{}, fmt.Errorf("%w: quantity %w", sweetdomain.ErrInvalidSweet, err)
	}
	return appsvcs.SweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    *req.Price,
		Quantity: qty,
	}, nil
}

// quantity returns the requested unit count, 1 when omitted.
func (req *PurchaseRequest) quantity() (int64, error) {
	if req.Quantity == nil {
		return 1, nil
	}
	n, err := models.ParseWholeNumber(req.Quantity.String())
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %w", sweetdomain.ErrInvalidPurchase, err)
	}
	return n, nil
}
