package ratelimit

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

// UserIDFunc extracts the already-resolved authenticated user id from a
// request, or "" for anonymous traffic. The limiter consumes identity, it
// never produces it.
type UserIDFunc func(*http.Request) string

// RejectionBody is the structured 429 payload.
type RejectionBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
	Code       string `json:"code"`
}

// Middleware wraps a handler with admission control for one request
// category. Every evaluated request gets the standard X-RateLimit-* headers;
// rejected requests are answered with 429 and a structured body, and the
// wrapped handler is never invoked. The global backstop policy is evaluated
// alongside the category policy so no identifier can exceed the
// cross-category ceiling by spreading traffic across endpoints.
func Middleware(l *Limiter, category Category, userID UserIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var resolvedUser string
			if userID != nil {
				resolvedUser = userID(r)
			}
			identifier := ResolveIdentifier(r, resolvedUser)

			if category != CategoryGlobal {
				if backstop := l.Check(r.Context(), CategoryGlobal, identifier); !backstop.Allowed {
					reject(w, l, backstop)
					return
				}
			}

			decision := l.Check(r.Context(), category, identifier)
			if !decision.Allowed {
				reject(w, l, decision)
				return
			}

			WriteHeaders(w.Header(), decision, l.Policy(decision.Category))
			if nearExhaustion(decision) {
				l.notifyNearExhaustion(decision)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteHeaders sets the standard rate-limit response headers for a decision.
// It is a pure function of its inputs and never mutates the request.
func WriteHeaders(h http.Header, d Decision, policy Policy) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(time.RFC3339))
	h.Set("X-RateLimit-Policy", fmt.Sprintf("%d; w=%d", d.Limit, int(policy.Window.Seconds())))
}

// RetryAfterSeconds computes the whole seconds until the decision's window
// resets, rounded up, never negative.
func RetryAfterSeconds(d Decision, now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}

func reject(w http.ResponseWriter, l *Limiter, d Decision) {
	policy := l.Policy(d.Category)
	retryAfter := RetryAfterSeconds(d, l.now())

	WriteHeaders(w.Header(), d, policy)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Policy-Violated", string(d.Category))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(RejectionBody{
		Error:      "Too Many Requests",
		Message:    policy.Message,
		RetryAfter: retryAfter,
		Code:       policy.RejectionCode(),
	})
}

func nearExhaustion(d Decision) bool {
	return d.Allowed && d.Source != SourceBypass && d.Remaining <= d.Limit/10
}
