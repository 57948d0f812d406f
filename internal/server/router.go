package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"calculator-api/internal/calculator"
	"calculator-api/internal/handlers"
	"calculator-api/internal/observability"
	"calculator-api/internal/store"
)

// NewRouter assembles the middleware chain and all endpoints around the
// injected store handle.
func NewRouter(s store.Store) http.Handler {

	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.Get("/", handlers.Index)
	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	calculator.RegisterRoutes(r, calculator.NewHandler(s))

	return r
}
