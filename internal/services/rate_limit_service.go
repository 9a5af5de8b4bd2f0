package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rfontaine/authd/internal/config"
	"github.com/rfontaine/authd/internal/models"
	pkglogger "github.com/rfontaine/authd/pkg/logger"
)

// AttemptRepository defines the interface for attempt-record operations
type AttemptRepository interface {
	Record(ctx context.Context, ip, action string, attemptedEmail *string) error
	CountAttempts(ctx context.Context, ip, action string, window time.Duration) (int, error)
	DeleteByIP(ctx context.Context, ip, action string) error
}

// ActionLimit is the attempt ceiling and sliding window for one action.
type ActionLimit struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimitService enforces per-action, per-IP attempt ceilings against the
// attempt store. Every check is a fresh count over the trailing window, so
// multiple service instances sharing the store agree on the limit. Two
// concurrent checks for the same IP can both pass before either failure is
// recorded; the window keeps that overshoot bounded.
type RateLimitService struct {
	repo        AttemptRepository
	limits      map[string]ActionLimit
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewRateLimitService creates a RateLimitService from the configured
// per-action limits.
func NewRateLimitService(repo AttemptRepository, cfg config.RateLimitConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *RateLimitService {
	return &RateLimitService{
		repo: repo,
		limits: map[string]ActionLimit{
			models.ActionLogin: {
				MaxAttempts: cfg.LoginMaxAttempts,
				Window:      time.Duration(cfg.LoginWindowMinutes) * time.Minute,
			},
			models.ActionSignup: {
				MaxAttempts: cfg.SignupMaxAttempts,
				Window:      time.Duration(cfg.SignupWindowMinutes) * time.Minute,
			},
		},
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CheckRateLimit counts attempts for ip+action within the configured window
// and fails with models.ErrRateLimitExceeded once the ceiling is reached.
// retryAfter is the window length in seconds, returned alongside the error
// so the transport can populate Retry-After.
func (s *RateLimitService) CheckRateLimit(ctx context.Context, ip, action string) (retryAfter int, err error) {
	limit := s.limit(action)

	count, err := s.repo.CountAttempts(ctx, ip, action, limit.Window)
	if err != nil {
		s.logger.Error("failed to count rate limit attempts",
			slog.String("action", action), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	if count >= limit.MaxAttempts {
		s.auditLogger.LogRateLimit(ip, action, count)
		return int(limit.Window.Seconds()), models.ErrRateLimitExceeded
	}

	return 0, nil
}

// RecordAttempt appends one attempt record for ip+action.
func (s *RateLimitService) RecordAttempt(ctx context.Context, ip, action string, attemptedEmail string) error {
	s.limit(action)

	var email *string
	if attemptedEmail != "" {
		email = &attemptedEmail
	}

	if err := s.repo.Record(ctx, ip, action, email); err != nil {
		s.logger.Error("failed to record attempt",
			slog.String("action", action), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// ResetAttempts deletes the attempt history for ip+action. A single success
// clears the counter entirely.
func (s *RateLimitService) ResetAttempts(ctx context.Context, ip, action string) error {
	s.limit(action)

	if err := s.repo.DeleteByIP(ctx, ip, action); err != nil {
		s.logger.Error("failed to reset attempts",
			slog.String("action", action), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("rate limit attempts reset",
		slog.String("ip_address", ip), slog.String("action", action))
	return nil
}

// limit resolves the configuration for an action. An unknown action is a
// programming-contract violation, not user input, so it panics.
func (s *RateLimitService) limit(action string) ActionLimit {
	limit, ok := s.limits[action]
	if !ok {
		panic(fmt.Sprintf("unknown rate limit action: %s", action))
	}
	return limit
}
