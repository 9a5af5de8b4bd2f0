package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/rfontaine/authd/internal/auth"
	"github.com/rfontaine/authd/internal/handlers"
	"github.com/rfontaine/authd/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, authHandler *handlers.AuthHandler, tokenManager *auth.TokenManager) {
	burstLimit := middleware.DefaultBurstLimit()

	router.Route("/api/auth", func(r chi.Router) {
		// Public routes - the store-backed per-action limiter runs inside
		// the handlers; httprate only absorbs raw floods
		r.Group(func(r chi.Router) {
			r.Use(middleware.BurstLimitByIP(burstLimit))
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes - access token required
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokenManager))
			r.Post("/logout", authHandler.Logout)
			r.Post("/logout-all", authHandler.LogoutAll)
			r.Get("/profile", authHandler.Profile)
		})
	})
}
