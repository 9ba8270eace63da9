package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/sigecafe-server/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса SigeCafé.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/offers", h.GetOffers)
			r.Get("/offers/mine", h.GetMyOffers)
			r.Post("/offers", h.CreateOffer)
			r.Delete("/offers/{id}", h.CancelOffer)

			r.Get("/coffee-prices", h.GetCurrentPrice)
			r.Get("/coffee-prices/history", h.GetPriceHistory)

			r.Get("/permissions", h.GetPermissions)
			r.Get("/permissions/check", h.CheckPermission)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorBody(w, http.StatusNotFound, "not_found", http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorBody(w, http.StatusMethodNotAllowed, "method_not_allowed", http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
