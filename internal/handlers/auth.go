package handlers

import (
	"net/http"
	"time"

	"wellness-tracker/internal/auth"
	"wellness-tracker/internal/common/logging"
	"wellness-tracker/internal/ratelimit"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.storage.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	h.logger.Info("account created", logging.Field{Key: "user_id", Value: user.ID})
	respondJSON(w, http.StatusCreated, user)
}

// HandleLogin validates credentials, issues a session token, and clears any
// rate-limit lockout the client accumulated while failing to sign in. The
// cleared identifier is the pre-authentication one: that is the key the
// failed attempts were counted under.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.storage.ValidateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.limiter.Reset(r.Context(), ratelimit.ResolveIdentifier(r, ""), ratelimit.CategoryAuthentication)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"token":   token,
		"user_id": user.ID,
	})
}

// HandleForgotPassword accepts a reset request. Delivery is handled by an
// external collaborator; the response is identical whether or not the email
// exists so the endpoint cannot be used to enumerate accounts.
func (h *Handlers) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if _, err := h.storage.GetUserByEmail(r.Context(), req.Email); err == nil {
		h.logger.Info("password reset requested")
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "If that email exists, reset instructions have been sent.",
	})
}
