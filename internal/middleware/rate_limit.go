package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// BurstLimitConfig holds transport-level rate limiting configuration
type BurstLimitConfig struct {
	RequestsPerMinute int
}

// DefaultBurstLimit returns the default transport-level ceiling for auth
// endpoints. This sits in front of the store-backed sliding-window limiter
// and only absorbs raw request floods; the semantic per-action limits live
// in the rate limit service.
func DefaultBurstLimit() BurstLimitConfig {
	return BurstLimitConfig{
		RequestsPerMinute: 30,
	}
}

// BurstLimitByIP creates a middleware that rate limits requests by client IP
func BurstLimitByIP(config BurstLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"error":{"code":"RATE_LIMIT_EXCEEDED","message":"Too many requests"}}`))
		}),
	)
}
