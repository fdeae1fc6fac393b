package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/sweetshop/pkg/app"
	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/services/sweet/application/handlers"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
)

// SweetRoutes registers the sweet endpoints on r. Reads resolve identity with
// auth.Authenticate and leave anonymous access to the service's gate, since
// browsing may be open. Writes sit behind auth.RequireAuth and never reach a
// handler without an identity.
func SweetRoutes(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(a.SessionStore, a.Verifier, a.Logger))
		r.Get("/sweets", handlers.NewListSweetsHandler(svcs).Execute)
		r.Get("/sweets/{id}", handlers.NewGetSweetHandler(svcs).Execute)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.SessionStore, a.Verifier, a.Logger))
		r.Post("/sweets", handlers.NewPostSweetHandler(svcs).Execute)
		r.Put("/sweets/{id}", handlers.NewPutSweetHandler(svcs).Execute)
		r.Delete("/sweets/{id}", handlers.NewDeleteSweetHandler(svcs).Execute)
		r.Post("/sweets/{id}/purchase", handlers.NewPurchaseSweetHandler(svcs).Execute)
	})
}
