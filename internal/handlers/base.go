// Package handlers implements the HTTP API surface: auth, check-ins,
// settings, health and the rate-limiter ops endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"wellness-tracker/internal/auth"
	apperrors "wellness-tracker/internal/common/errors"
	"wellness-tracker/internal/common/logging"
	"wellness-tracker/internal/config"
	"wellness-tracker/internal/ratelimit"
	"wellness-tracker/internal/storage"
)

type Handlers struct {
	storage *storage.Storage
	auth    *auth.Auth
	limiter *ratelimit.Limiter
	config  *config.Config
	logger  logging.Logger
}

func New(store *storage.Storage, authSvc *auth.Auth, limiter *ratelimit.Limiter, cfg *config.Config, logger logging.Logger) *Handlers {
	return &Handlers{
		storage: store,
		auth:    authSvc,
		limiter: limiter,
		config:  cfg,
		logger:  logger,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case apperrors.ErrTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrTypeAuth:
		status = http.StatusUnauthorized
	case apperrors.ErrTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrTypeRateLimit:
		status = http.StatusTooManyRequests
	}

	respondJSON(w, status, map[string]string{"error": appErr.Message})
}

func decodeJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	return nil
}
