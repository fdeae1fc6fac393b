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

// PutSweetHandler handles PUT /sweets/{id}.
type PutSweetHandler struct {
	svc *appsvcs.Services
}

// NewPutSweetHandler returns a PutSweetHandler backed by the given services.
func NewPutSweetHandler(svc *appsvcs.Services) *PutSweetHandler {
	return &PutSweetHandler{svc: svc}
}

// Execute replaces name, category, price and quantity in one step.
//
//	@Summary		Update sweet
//	@Description	Full replace of the editable fields. Admin only.
//	@Tags			sweets
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Sweet ID"	format(uuid)
//	@Param			request	body		SweetRequest	true	"Replacement fields"
//	@Success		200		{object}	SweetResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sweets/{id} [put]
func (h *PutSweetHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromCtx(r.Context())
	if err := h.svc.Sweet.Authorize(caller, domainsvcs.OpUpdate); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	id, err := sweetID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	req, ok := pkgvalidator.ValidateRequest[SweetRequest](w, r)
	if !ok {
		return
	}
	in, err := req.input()
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	sweet, err := h.svc.Sweet.Update(r.Context(), caller, id, in)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sweet))
}
