package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"wellness-tracker/internal/middleware"
	"wellness-tracker/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes. Every mutating or
// authentication-sensitive endpoint is wrapped with the rate-limit category
// that matches its abuse profile.
func (app *App) SetupRoutes(router *mux.Router) {
	router.Use(middleware.LoggingMiddleware)

	h := app.Handlers
	limit := func(category ratelimit.Category) func(http.Handler) http.Handler {
		return ratelimit.Middleware(app.Limiter, category, app.Auth.UserIDFromRequest)
	}

	// Health check: never throttled
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// Auth endpoints: the strictest policies, keyed on the anonymous
	// identifier since no session exists yet
	router.Handle("/api/auth/register",
		limit(ratelimit.CategoryRegistration)(http.HandlerFunc(h.HandleRegister))).Methods("POST")
	router.Handle("/api/auth/login",
		limit(ratelimit.CategoryAuthentication)(http.HandlerFunc(h.HandleLogin))).Methods("POST")
	router.Handle("/api/auth/forgot-password",
		limit(ratelimit.CategoryPasswordReset)(http.HandlerFunc(h.HandleForgotPassword))).Methods("POST")

	// Protected routes: authenticated, then per-category limits
	protected := router.NewRoute().Subrouter()
	protected.Use(app.Auth.Middleware)

	protected.Handle("/api/checkins",
		limit(ratelimit.CategoryRead)(http.HandlerFunc(h.HandleListCheckins))).Methods("GET")
	protected.Handle("/api/checkins",
		limit(ratelimit.CategoryWrite)(http.HandlerFunc(h.HandleCreateCheckin))).Methods("POST")

	protected.Handle("/api/settings",
		limit(ratelimit.CategoryRead)(http.HandlerFunc(h.HandleGetSettings))).Methods("GET")
	protected.Handle("/api/settings",
		limit(ratelimit.CategorySensitive)(http.HandlerFunc(h.HandleUpdateSettings))).Methods("PUT")

	// Ops endpoints for the rate limiter itself
	protected.Handle("/api/ops/ratelimit",
		limit(ratelimit.CategorySensitive)(http.HandlerFunc(h.HandleRateLimitSnapshot))).Methods("GET")
	protected.Handle("/api/ops/ratelimit/reset",
		limit(ratelimit.CategorySensitive)(http.HandlerFunc(h.HandleRateLimitReset))).Methods("POST")
}
