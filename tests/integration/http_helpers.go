package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rfontaine/authd/internal/auth"
	"github.com/rfontaine/authd/internal/config"
	"github.com/rfontaine/authd/internal/database"
	"github.com/rfontaine/authd/internal/handlers"
	custommiddleware "github.com/rfontaine/authd/internal/middleware"
	"github.com/rfontaine/authd/internal/routes"
	"github.com/rfontaine/authd/internal/services"
	"github.com/rfontaine/authd/pkg/httpx"
	pkglogger "github.com/rfontaine/authd/pkg/logger"
)

// TestServer wraps httptest.Server with the full production wiring on a
// real database.
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Config *config.Config
}

// NewTestServer builds the complete HTTP stack against the given database.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret-32-characters-long-for-testing",
			AccessTokenExpiry:      15 * time.Minute,
			RefreshTokenExpiryDays: 7,
			BcryptCost:             4,
		},
		RateLimit: config.RateLimitConfig{
			LoginMaxAttempts:    5,
			LoginWindowMinutes:  15,
			SignupMaxAttempts:   3,
			SignupWindowMinutes: 60,
		},
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
	}

	userRepo, tokenRepo, attemptRepo := InitializeRepositories(db)

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

	ipConfig := &httpx.IPConfig{}
	authHandler := handlers.NewAuthHandler(authService, tokenManager, rateLimitService, ipConfig)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(custommiddleware.SecurityHeaders(custommiddleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, tokenManager)

	return &TestServer{
		Server: httptest.NewServer(router),
		DB:     db,
		Config: cfg,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with an access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
}

// Envelope mirrors the API response shape for assertions
type Envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Error   *EnvelopeError         `json:"error"`
}

// EnvelopeError is the error half of the response envelope
type EnvelopeError struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Details    map[string][]string `json:"details"`
	RetryAfter int                 `json:"retryAfter"`
}

// ParseEnvelope decodes a response body into the API envelope
func ParseEnvelope(resp *http.Response) (*Envelope, error) {
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// ExtractTokens pulls the token pair out of a login response
func ExtractTokens(env *Envelope) (accessToken, refreshToken string) {
	if env.Data == nil {
		return "", ""
	}
	accessToken, _ = env.Data["accessToken"].(string)
	refreshToken, _ = env.Data["refreshToken"].(string)
	return accessToken, refreshToken
}
