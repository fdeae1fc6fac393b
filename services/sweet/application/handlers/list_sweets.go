package handlers

import (
	"net/http"

	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/errhttp"
	"github.com/ghuser/sweetshop/pkg/httpx"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
)

// ListSweetsHandler handles GET /sweets.
type ListSweetsHandler struct {
	svc *appsvcs.Services
}

// NewListSweetsHandler returns a ListSweetsHandler backed by the given services.
func NewListSweetsHandler(svc *appsvcs.Services) *ListSweetsHandler {
	return &ListSweetsHandler{svc: svc}
}

// Execute lists the catalog.
//
//	@Summary		List sweets
//	@Description	Returns every sweet in the catalog, oldest first
//	@Tags			sweets
//	@Produce		json
//	@Success		200	{array}		SweetResponse
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sweets [get]
func (h *ListSweetsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromCtx(r.Context())

	sweets, err := h.svc.Sweet.List(r.Context(), caller)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	out := make([]SweetResponse, len(sweets))
	for i, s := range sweets {
		out[i] = toResponse(s)
	}
	httpx.JSON(w, http.StatusOK, out)
}
