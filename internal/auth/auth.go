// Package auth issues and validates session tokens. The rate limiter treats
// the user id this package resolves as the highest-priority identity signal;
// auth itself never makes admission decisions.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "wellness-tracker/internal/common/errors"
)

// SessionCookieName is the cookie the login handler sets. It matches the
// cookie the rate limiter's identifier resolver reads.
const SessionCookieName = "session"

const tokenTTL = 24 * time.Hour

type contextKey string

const userIDKey contextKey = "user_id"

// Auth signs and validates HS256 session tokens.
type Auth struct {
	secret []byte
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// New creates an Auth with the given signing secret.
func New(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// IssueToken signs a session token for userID.
func (a *Auth) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", apperrors.InternalError("failed to sign session token", err)
	}
	return signed, nil
}

// ValidateToken parses a session token and returns the user id it carries.
func (a *Auth) ValidateToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.AuthError("invalid session token")
	}
	if claims.UserID == "" {
		return "", apperrors.AuthError("session token has no user")
	}
	return claims.UserID, nil
}

// Middleware rejects requests without a valid session and stores the
// resolved user id in the request context for handlers and the rate
// limiter's identifier resolver.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.resolveUser(r)
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// UserIDFromRequest returns the authenticated user id for a request, or ""
// when the request carries no valid session. It never fails: an invalid
// token just resolves to anonymous.
func (a *Auth) UserIDFromRequest(r *http.Request) string {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return userID
	}
	return a.resolveUser(r)
}

func (a *Auth) resolveUser(r *http.Request) string {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return ""
	}

	userID, err := a.ValidateToken(token)
	if err != nil {
		return ""
	}
	return userID
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// WithUserID stores a user id in a context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id stored in a context, or "".
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
