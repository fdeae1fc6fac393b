package handlers

import (
	"net/http"

	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/errhttp"
	"github.com/ghuser/sweetshop/pkg/httpx"
	pkgvalidator "github.com/ghuser/sweetshop/pkg/validator"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
	domainsvcs "github.com/ghuser/sweetshop/services/sweet/domain/services"
)

// PurchaseSweetHandler handles POST /sweets/{id}/purchase.
type PurchaseSweetHandler struct {
	svc *appsvcs.Services
}

// NewPurchaseSweetHandler returns a PurchaseSweetHandler backed by the given services.
func NewPurchaseSweetHandler(svc *appsvcs.Services) *PurchaseSweetHandler {
	return &PurchaseSweetHandler{svc: svc}
}

// Execute buys units of a sweet.
//
//	@Summary		Purchase sweet
//	@Description	Removes quantity units from stock atomically. The body is optional; quantity defaults to 1.
//	@Tags			sweets
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Sweet ID"	format(uuid)
//	@Param			request	body		PurchaseRequest	false	"Units to buy"
//	@Success		200		{object}	PurchaseResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sweets/{id}/purchase [post]
func (h *PurchaseSweetHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromCtx(r.Context())
	if err := h.svc.Sweet.Authorize(caller, domainsvcs.OpPurchase); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	id, err := sweetID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	req, ok := pkgvalidator.ValidateOptionalRequest[PurchaseRequest](w, r)
	if !ok {
		return
	}
	n, err := req.quantity()
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	sweet, err := h.svc.Sweet.Purchase(r.Context(), caller, id, n)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, PurchaseResponse{SweetResponse: toResponse(sweet), Purchased: n})
}
