package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rfontaine/authd/internal/auth"
	"github.com/rfontaine/authd/internal/background"
	"github.com/rfontaine/authd/internal/config"
	"github.com/rfontaine/authd/internal/database"
	"github.com/rfontaine/authd/internal/handlers"
	custommiddleware "github.com/rfontaine/authd/internal/middleware"
	"github.com/rfontaine/authd/internal/repositories"
	"github.com/rfontaine/authd/internal/routes"
	"github.com/rfontaine/authd/internal/services"
	"github.com/rfontaine/authd/migrations"
	"github.com/rfontaine/authd/pkg/httpx"
	pkglogger "github.com/rfontaine/authd/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db.Pool, migrations.FS); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	attemptRepo := repositories.NewAttemptRepository(db)

	// Token manager with the injected signing secret
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiryDays,
		tokenRepo,
		logger,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	rateLimitService := services.NewRateLimitService(attemptRepo, cfg.RateLimit, logger, auditLogger)
	authService := services.NewAuthService(userRepo, tokenManager, cfg.Auth.BcryptCost, logger, auditLogger)

	// Expiry sweeper: tokens hourly, stale attempts every 30 minutes
	cleanupManager := background.NewCleanupManager(
		tokenRepo,
		attemptRepo,
		logger,
		cfg.Auth.TokenSweepInterval,
		cfg.Auth.AttemptSweepInterval,
		cfg.Auth.AttemptRetention,
	)

	ipConfig := &httpx.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, tokenManager, rateLimitService, ipConfig)

	corsConfig := custommiddleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(custommiddleware.CORS(corsConfig))
	router.Use(custommiddleware.RequestLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, tokenManager)

	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"disconnected"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"connected"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
