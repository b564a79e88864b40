package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/{orderId}", h.GetOrder)
			r.Post("/{orderId}/payment", h.ProcessPayment)
			r.Post("/{orderId}/cancel", h.CancelOrder)
			r.Patch("/{orderId}/status", h.UpdateStatus)
		})
		r.Get("/users/{userId}/orders", h.ListOrdersByUser)

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/{productId}", h.GetInventory)
			r.Post("/adjust", h.AdjustStock)
		})

		r.Get("/payments/by-order/{orderId}", h.ListPaymentsByOrder)
	})

	return r
}
