package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rfontaine/authd/internal/auth"
	"github.com/rfontaine/authd/internal/models"
	"github.com/rfontaine/authd/internal/services"
	"github.com/rfontaine/authd/pkg/httpx"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password, fullName string) (*models.User, error)
	Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	Logout(ctx context.Context, userID int64, refreshToken string) error
	LogoutAll(ctx context.Context, userID int64) error
	Profile(ctx context.Context, userID int64) (*models.User, error)
}

// TokenRefresher exchanges a stored refresh token for a new access token.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// RateLimiter is the sliding-window attempt guard in front of signup/login.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, ip, action string) (retryAfter int, err error)
	RecordAttempt(ctx context.Context, ip, action string, attemptedEmail string) error
	ResetAttempts(ctx context.Context, ip, action string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service   AuthServiceInterface
	refresher TokenRefresher
	limiter   RateLimiter
	ipConfig  *httpx.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, refresher TokenRefresher, limiter RateLimiter, ipConfig *httpx.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		refresher: refresher,
		limiter:   limiter,
		ipConfig:  ipConfig,
	}
}

// Request DTOs

// SignupRequest represents the request body for signup. Field policy
// (format, strength, length) is validated by the service so violations
// accumulate per field.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the request body for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest represents the request body for logout
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Response DTOs

type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	CreatedAt string `json:"createdAt,omitempty"`
	LastLogin string `json:"lastLogin,omitempty"`
}

func newUserResponse(user *models.User, withTimestamps bool) *UserResponse {
	resp := &UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}
	if withTimestamps {
		resp.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
		if user.LastLogin != nil {
			resp.LastLogin = user.LastLogin.UTC().Format(time.RFC3339)
		}
	}
	return resp
}

// Signup handles user registration. The rate limit is consulted before any
// other work; every attempt is recorded and a success clears the history
// for this IP.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ipAddress := httpx.ExtractClientIP(r, h.ipConfig)

	if !h.checkRateLimit(w, r, ipAddress, models.ActionSignup) {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := h.limiter.RecordAttempt(r.Context(), ipAddress, models.ActionSignup, req.Email); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}

	user, err := h.service.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			httpx.WriteValidationError(w, ve.Details)
		case errors.Is(err, models.ErrConflict):
			httpx.WriteError(w, http.StatusConflict, "EMAIL_EXISTS", "Email is already registered")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		}
		return
	}

	if err := h.limiter.ResetAttempts(r.Context(), ipAddress, models.ActionSignup); err != nil {
		// The account exists; a failed reset only leaves stale counters
	}

	httpx.WriteSuccess(w, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"user": newUserResponse(user, true),
	})
}

// Login handles credential login. Rate limiting runs before credentials are
// checked; failed credential checks append an attempt record and a success
// clears them.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ipAddress := httpx.ExtractClientIP(r, h.ipConfig)

	if !h.checkRateLimit(w, r, ipAddress, models.ActionLogin) {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			httpx.WriteValidationError(w, ve.Details)
		case errors.Is(err, models.ErrUnauthorized):
			// Identical message for unknown email and wrong password
			_ = h.limiter.RecordAttempt(r.Context(), ipAddress, models.ActionLogin, req.Email)
			httpx.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		}
		return
	}

	if err := h.limiter.ResetAttempts(r.Context(), ipAddress, models.ActionLogin); err != nil {
		// Login already succeeded; stale counters clear on the next sweep
	}

	httpx.WriteSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         newUserResponse(result.User, false),
	})
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is not rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteValidationError(w, map[string][]string{"refreshToken": {"Refresh token is required"}})
		return
	}

	accessToken, err := h.refresher.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, models.ErrTokenInvalid) {
			httpx.WriteError(w, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid or expired refresh token")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Token refreshed successfully", map[string]interface{}{
		"accessToken": accessToken,
	})
}

// Logout revokes the supplied refresh token. Requires a valid access token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteValidationError(w, map[string][]string{"refreshToken": {"Refresh token is required"}})
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID, req.RefreshToken); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Logout successful", nil)
}

// LogoutAll revokes every refresh token the authenticated user holds.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), claims.UserID); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Logout successful - all sessions cleared", nil)
}

// Profile returns the authenticated user's record.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "", map[string]interface{}{
		"user": newUserResponse(user, true),
	})
}

// checkRateLimit writes a 429 and returns false when ip+action is over its
// ceiling. Runs before request parsing so a flooded endpoint does no work.
func (h *AuthHandler) checkRateLimit(w http.ResponseWriter, r *http.Request, ipAddress, action string) bool {
	retryAfter, err := h.limiter.CheckRateLimit(r.Context(), ipAddress, action)
	if err != nil {
		if errors.Is(err, models.ErrRateLimitExceeded) {
			httpx.WriteRateLimited(w, "Too many "+action+" attempts. Please try again later.", retryAfter)
			return false
		}
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
		return false
	}
	return true
}
