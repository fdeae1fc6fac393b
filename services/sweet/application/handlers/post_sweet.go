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

// PostSweetHandler handles POST /sweets requests.
type PostSweetHandler struct {
	svc *appsvcs.Services
}

// NewPostSweetHandler returns a PostSweetHandler backed by the given services.
func NewPostSweetHandler(svc *appsvcs.Services) *PostSweetHandler {
	return &PostSweetHandler{svc: svc}
}

// Execute creates a new sweet.
//
//	@Summary		Create sweet
//	@Description	Adds a sweet to the catalog. Admin only.
//	@Tags			sweets
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SweetRequest	true	"Sweet to create"
//	@Success		201		{object}	SweetResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sweets [post]
func (h *PostSweetHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromCtx(r.Context())
	// Access is decided before the body is read.
	if err := h.svc.Sweet.Authorize(caller, domainsvcs.OpCreate); err != nil {
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

	sweet, err := h.svc.Sweet.Create(r.Context(), caller, in)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(sweet))
}
