package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minewatch/internal/middleware"
)

// NewRouter builds the HTTP routing table around the handler set.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sensors", h.ListSensors)
		r.Post("/sensors", h.AddSensor)
		r.Patch("/sensors/{id}", h.UpdateSensor)

		r.Get("/alerts", h.ListAlerts)
		r.Post("/alerts", h.RaiseAlert)
		r.Post("/alerts/{id}/acknowledge", h.AcknowledgeAlert)
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
