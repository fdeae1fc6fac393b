package handlers

import (
	"net/http"

	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/errhttp"
	"github.com/ghuser/sweetshop/pkg/httpx"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
	domainsvcs "github.com/ghuser/sweetshop/services/sweet/domain/services"
)

// DeleteSweetHandler handles DELETE /sweets/{id}.
type DeleteSweetHandler struct {
	svc *appsvcs.Services
}

// NewDeleteSweetHandler returns a DeleteSweetHandler backed by the given services.
func NewDeleteSweetHandler(svc *appsvcs.Services) *DeleteSweetHandler {
	return &DeleteSweetHandler{svc: svc}
}

// Execute deletes a sweet permanently.
//
//	@Summary	Delete sweet
//	@Tags		sweets
//	@Produce	json
//	@Param		id	path		string	true	"Sweet ID"	format(uuid)
//	@Success	200	{object}	DeleteResponse
//	@Failure	401	{object}	ErrorResponse
//	@Failure	403	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/sweets/{id} [delete]
func (h *DeleteSweetHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromCtx(r.Context())
	if err := h.svc.Sweet.Authorize(caller, domainsvcs.OpDelete); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	id, err := sweetID(r)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	if err := h.svc.Sweet.Delete(r.Context(), caller, id); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, DeleteResponse{Msg: "deleted"})
}
