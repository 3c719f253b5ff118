package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"minewatch/internal/auth"
	"minewatch/internal/ledger"
	"minewatch/internal/logger"
	"minewatch/internal/metrics"
	"minewatch/internal/models"
	"minewatch/internal/registry"
)

// maxBodySize bounds mutation payloads.
const maxBodySize = 1 << 20 // 1MB

// Handler binds the engine components to the HTTP surface.
type Handler struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	gate     *auth.Gate
}

// NewHandler creates the HTTP handler set.
func NewHandler(reg *registry.Registry, led *ledger.Ledger, gate *auth.Gate) *Handler {
	return &Handler{
		registry: reg,
		ledger:   led,
		gate:     gate,
	}
}

// ListSensors handles GET /api/v1/sensors. Every call runs a refresh
// cycle, so responses are deliberately not idempotent.
func (h *Handler) ListSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.registry.List(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"sensors": sensors})
}

// AddSensor handles POST /api/v1/sensors.
func (h *Handler) AddSensor(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var draft models.SensorDraft
	if !h.readJSON(w, r, &draft) {
		return
	}

	sensor, err := h.registry.Add(r.Context(), identity, draft)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{"sensor": sensor})
}

// UpdateSensor handles PATCH /api/v1/sensors/{id}.
func (h *Handler) UpdateSensor(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var patch models.SensorPatch
	if !h.readJSON(w, r, &patch) {
		return
	}

	sensor, err := h.registry.Update(r.Context(), identity, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"sensor": sensor})
}

// ListAlerts handles GET /api/v1/alerts.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.ledger.List(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// RaiseAlert handles POST /api/v1/alerts.
func (h *Handler) RaiseAlert(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var draft models.AlertDraft
	if !h.readJSON(w, r, &draft) {
		return
	}

	alert, err := h.ledger.Raise(r.Context(), identity, draft)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{"alert": alert})
}

// AcknowledgeAlert handles POST /api/v1/alerts/{id}/acknowledge.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	alert, err := h.ledger.Acknowledge(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"alert": alert})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// authenticate resolves the caller identity for mutation endpoints,
// writing the Unauthorized response itself when there is none. A
// provider transport failure is also surfaced as Unauthorized: the
// engine never falls back to trusting an unverified credential.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, err := h.gate.Authenticate(r)
	if err != nil {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("identity provider failure")
	}

	if identity == nil {
		metrics.AuthRejectionsTotal.Inc()
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	return identity, true
}

// readJSON decodes the request body, writing the error response on
// failure.
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}

	return true
}

// writeFailure maps the error taxonomy to an HTTP status.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrStorage):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log := logger.WithComponent("api")
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	h.writeError(w, status, err.Error())
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"error": message})
}

// writeJSON writes a JSON response with the given status.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("failed to encode response")
	}
}
