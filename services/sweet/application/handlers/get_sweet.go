package handlers

import (
	"net/http"

	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/errhttp"
	"github.com/ghuser/sweetshop/pkg/httpx"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
	domainsvcs "github.com/ghuser/sweetshop/services/sweet/domain/services"
)

// GetSweetHandler handles GET /sweets/{id}.
type GetSweetHandler struct {
	svc *appsvcs.Services
}

// NewGetSweetHandler returns a GetSweetHandler backed by the given services.
func NewGetSweetHandler(svc *appsvcs.Services) *GetSweetHandler {
	return &GetSweetHandler{svc: svc}
}

// Execute returns one sweet.
//
//	@Summary	Get sweet
//	@Tags		sweets
//	@Produce	json
//	@Param		id	path		string	true	"Sweet ID"	format(uuid)
//	@Success	200	{object}	SweetResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/sweets/{id} [get]
func (h *GetSweetHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromCtx(r.Context())
	if err := h.svc.Sweet.Authorize(caller, domainsvcs.OpGet); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	id, err := sweetID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	sweet, err := h.svc.Sweet.Get(r.Context(), caller, id)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sweet))
}
