package handlers

import (
	"context"

	"github.com/rfontaine/authd/internal/models"
	"github.com/rfontaine/authd/internal/services"
)

// mockAuthService implements AuthServiceInterface for testing
type mockAuthService struct {
	SignupFunc    func(ctx context.Context, email, password, fullName string) (*models.User, error)
	LoginFunc     func(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	LogoutFunc    func(ctx context.Context, userID int64, refreshToken string) error
	LogoutAllFunc func(ctx context.Context, userID int64) error
	ProfileFunc   func(ctx context.Context, userID int64) (*models.User, error)
}

func (m *mockAuthService) Signup(ctx context.Context, email, password, fullName string) (*models.User, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, email, password, fullName)
	}
	return nil, models.ErrInternalServer
}

func (m *mockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress)
	}
	return nil, models.ErrUnauthorized
}

func (m *mockAuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, userID, refreshToken)
	}
	return nil
}

func (m *mockAuthService) LogoutAll(ctx context.Context, userID int64) error {
	if m.LogoutAllFunc != nil {
		return m.LogoutAllFunc(ctx, userID)
	}
	return nil
}

func (m *mockAuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

// mockRefresher implements TokenRefresher for testing
type mockRefresher struct {
	RefreshAccessTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockRefresher) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if m.RefreshAccessTokenFunc != nil {
		return m.RefreshAccessTokenFunc(ctx, refreshToken)
	}
	return "", models.ErrTokenInvalid
}

// mockRateLimiter implements RateLimiter for testing. The zero value allows
// everything and records nothing.
type mockRateLimiter struct {
	CheckRateLimitFunc func(ctx context.Context, ip, action string) (int, error)
	RecordAttemptFunc  func(ctx context.Context, ip, action string, attemptedEmail string) error
	ResetAttemptsFunc  func(ctx context.Context, ip, action string) error
}

func (m *mockRateLimiter) CheckRateLimit(ctx context.Context, ip, action string) (int, error) {
	if m.CheckRateLimitFunc != nil {
		return m.CheckRateLimitFunc(ctx, ip, action)
	}
	return 0, nil
}

func (m *mockRateLimiter) RecordAttempt(ctx context.Context, ip, action string, attemptedEmail string) error {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, ip, action, attemptedEmail)
	}
	return nil
}

func (m *mockRateLimiter) ResetAttempts(ctx context.Context, ip, action string) error {
	if m.ResetAttemptsFunc != nil {
		return m.ResetAttemptsFunc(ctx, ip, action)
	}
	return nil
}
