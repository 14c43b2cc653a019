package handlers

import (
	"net/http"
	"strconv"

	"wellness-tracker/internal/auth"
)

type checkinRequest struct {
	Mood   int    `json:"mood"`
	Energy int    `json:"energy"`
	Note   string `json:"note"`
}

// HandleCreateCheckin records a wellness check-in for the authenticated user.
func (h *Handlers) HandleCreateCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	checkin, err := h.storage.CreateCheckin(r.Context(), auth.UserIDFromContext(r.Context()), req.Mood, req.Energy, req.Note)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkin)
}

// HandleListCheckins returns the authenticated user's recent check-ins.
func (h *Handlers) HandleListCheckins(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	checkins, err := h.storage.ListCheckins(r.Context(), auth.UserIDFromContext(r.Context()), limit)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"checkins": checkins})
}
