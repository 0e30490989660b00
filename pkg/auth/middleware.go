package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/traction-pm/traction/pkg/model"
	"github.com/traction-pm/traction/pkg/store"
)

// UserResolver looks up the token subject in the user table.
type UserResolver interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// publicPaths are endpoints that do not require authentication.
var publicPaths = []string{
	"/health",
	"/readiness",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// NewMiddleware creates the bearer-token authentication middleware.
// If validator is nil, all non-public requests are rejected (fail closed).
//
// The middleware distinguishes three failure classes: UNAUTHORIZED for a
// missing or malformed header, INVALID_TOKEN for a signature or expiry
// failure, and USER_NOT_FOUND for a valid token whose subject no longer
// exists.
func NewMiddleware(validator *TokenValidator, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "UNAUTHORIZED", "Missing Authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeAuthError(w, "UNAUTHORIZED", "Invalid Authorization header format (expected 'Bearer <token>')")
				return
			}

			if validator == nil {
				writeAuthError(w, "UNAUTHORIZED", "Authentication not configured")
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				writeAuthError(w, "INVALID_TOKEN", "Invalid or expired token")
				return
			}

			user, err := users.GetUser(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeAuthError(w, "USER_NOT_FOUND", "Token subject no longer exists")
					return
				}
				writeAuthError(w, "INTERNAL_ERROR", "Could not resolve user")
				return
			}

			principal := &Principal{ID: user.ID, Email: user.Email, Name: user.Name}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// writeAuthError emits the standard response envelope with a 401. It lives
// here rather than pkg/api to keep auth free of a handler dependency.
func writeAuthError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	status := http.StatusUnauthorized
	if code == "INTERNAL_ERROR" {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
