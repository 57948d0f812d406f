package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the operation and history endpoints at the router
// root, matching the public API surface.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/add", h.Add)
	r.Post("/subtract", h.Subtract)
	r.Post("/multiply", h.Multiply)
	r.Post("/divide", h.Divide)

	r.Get("/calculations", h.Calculations)
	r.Get("/users", h.Users)
}
