// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to StatusFor for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/httpx"
	"github.com/ghuser/sweetshop/pkg/telemetry"
	sweetdomain "github.com/ghuser/sweetshop/services/sweet/domain"
)

// WriteError writes {"error": message} with the status StatusFor picks.
// Messages of 5xx responses are replaced by the status text and the error is
// reported to Sentry on the request's hub.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		telemetry.CaptureError(r.Context(), err)
	}
	httpx.JSONError(w, status, httpx.SafeError(err, status, true))
}

// StatusFor matches err against the known sentinels with errors.Is, so
// wrapped errors map the same as bare ones. Unknown errors are 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, httpx.ErrMalformedBody):
		return http.StatusBadRequest // 400
	case errors.Is(err, httpx.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge // 413
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized // 401
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden // 403
	case errors.Is(err, sweetdomain.ErrSweetNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, sweetdomain.ErrInsufficientStock),
		errors.Is(err, sweetdomain.ErrSweetAlreadyExists):
		return http.StatusConflict // 409
	case errors.Is(err, sweetdomain.ErrInvalidSweet),
		errors.Is(err, sweetdomain.ErrInvalidPurchase):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}
