package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rfontaine/authd/internal/models"
	"github.com/rfontaine/authd/pkg/httpx"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing access token claims in context
	UserContextKey contextKey = "user"
)

// Middleware validates the Bearer access token and injects its claims into
// the request context. Token-specific failures keep their distinct codes
// (TOKEN_EXPIRED vs TOKEN_INVALID) so clients know when to refresh.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			claims, err := tm.VerifyAccessToken(parts[1])
			if err != nil {
				if errors.Is(err, models.ErrTokenExpired) {
					httpx.WriteError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired")
					return
				}
				httpx.WriteError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid access token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the access token claims injected by Middleware,
// or nil when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *models.AccessTokenClaims {
	claims, _ := ctx.Value(UserContextKey).(*models.AccessTokenClaims)
	return claims
}
