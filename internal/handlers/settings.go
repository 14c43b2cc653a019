package handlers

import (
	"net/http"

	"wellness-tracker/internal/auth"
	"wellness-tracker/internal/storage"
)

// HandleGetSettings returns the authenticated user's settings.
func (h *Handlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.storage.GetSettings(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// HandleUpdateSettings updates the authenticated user's settings.
func (h *Handlers) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RemindersEnabled bool   `json:"reminders_enabled"`
		Timezone         string `json:"timezone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	settings := &storage.Settings{
		UserID:           auth.UserIDFromContext(r.Context()),
		RemindersEnabled: req.RemindersEnabled,
		Timezone:         req.Timezone,
	}
	if err := h.storage.UpdateSettings(r.Context(), settings); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}
