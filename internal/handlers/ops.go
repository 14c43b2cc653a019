package handlers

import (
	"net/http"

	apperrors "wellness-tracker/internal/common/errors"
	"wellness-tracker/internal/common/logging"
	"wellness-tracker/internal/ratelimit"
)

// HealthCheck reports liveness plus the rate limiter's backend health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":     "ok",
		"rate_limit": h.limiter.Snapshot(),
	}
	if err := h.storage.Health(); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
	}
	respondJSON(w, http.StatusOK, status)
}

// HandleRateLimitSnapshot exposes the limiter's analytics snapshot for the
// ops dashboard.
func (h *Handlers) HandleRateLimitSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.limiter.Snapshot())
}

// HandleRateLimitReset clears a specific (identifier, category) quota. Used
// by support tooling to lift a lockout without waiting for the window.
func (h *Handlers) HandleRateLimitReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Category   string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Identifier == "" || req.Category == "" {
		respondError(w, apperrors.ValidationError("identifier and category are required"))
		return
	}

	h.limiter.Reset(r.Context(), req.Identifier, ratelimit.Category(req.Category))
	h.logger.Info("rate limit reset",
		logging.Field{Key: "identifier", Value: ratelimit.AnonymizeIdentifier(req.Identifier)},
		logging.Field{Key: "category", Value: req.Category},
	)

	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
