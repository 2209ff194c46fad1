package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes, including not-found responses)
	r.Use(RequestIDMiddleware)
	r.Use(CORSMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RecoveryMiddleware)

	r.Get("/calculate", h.Calculate)
	r.Get("/history", h.History)

	// Only GET is served; everything else is simply not found.
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	return r
}
