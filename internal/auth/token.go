package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rfontaine/authd/internal/models"
)

// TokenRepository is the persistence contract for refresh tokens. The store
// treats expired rows as absent, so GetByToken never returns a stale token.
type TokenRepository interface {
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID int64) error
}

// TokenManager mints and verifies access tokens and manages the lifecycle
// of opaque refresh tokens. The signing secret is injected at construction,
// never read from ambient state, so the manager is testable with any key.
type TokenManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshExpiryDays  int
	tokenRepo          TokenRepository
	logger             *slog.Logger
}

// NewTokenManager creates a TokenManager signing with the given secret.
func NewTokenManager(secret string, accessExpiry time.Duration, refreshExpiryDays int, tokenRepo TokenRepository, logger *slog.Logger) *TokenManager {
	return &TokenManager{
		secret:            []byte(secret),
		accessTokenExpiry: accessExpiry,
		refreshExpiryDays: refreshExpiryDays,
		tokenRepo:         tokenRepo,
		logger:            logger,
	}
}

// IssueAccessToken creates a short-lived HS256-signed token carrying the
// user id and email as claims. Stateless: no store access.
func (tm *TokenManager) IssueAccessToken(userID int64, email string) (string, error) {
	now := time.Now()
	claims := &models.AccessTokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// IssueRefreshToken generates an unguessable opaque token, persists it with
// its expiry, and returns the raw value. This is the only time the full
// token is ever disclosed.
func (tm *TokenManager) IssueRefreshToken(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	expiresAt := time.Now().AddDate(0, 0, tm.refreshExpiryDays)

	if err := tm.tokenRepo.Create(ctx, userID, token, expiresAt); err != nil {
		return "", fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return token, nil
}

// VerifyAccessToken checks signature and expiry, returning the claims.
// Fails with models.ErrTokenExpired when the exp claim has passed and
// models.ErrTokenInvalid for bad signatures or malformed structure.
func (tm *TokenManager) VerifyAccessToken(tokenString string) (*models.AccessTokenClaims, error) {
	claims := &models.AccessTokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}

// RefreshAccessToken exchanges a stored refresh token for a new access
// token. The refresh token itself is deliberately not rotated: a single
// long-lived token is reused until logout or natural expiry, so clients
// holding it keep working across refreshes.
func (tm *TokenManager) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	record, err := tm.tokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrTokenInvalid
		}
		tm.logger.Error("failed to look up refresh token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	accessToken, err := tm.IssueAccessToken(record.UserID, record.UserEmail)
	if err != nil {
		tm.logger.Error("failed to issue access token on refresh",
			slog.Int64("user_id", record.UserID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	return accessToken, nil
}

// RevokeRefreshToken deletes the token record. Idempotent: revoking an
// absent token is a no-op.
func (tm *TokenManager) RevokeRefreshToken(ctx context.Context, token string) error {
	return tm.tokenRepo.DeleteByToken(ctx, token)
}

// RevokeAllForUser deletes every refresh token a user holds.
func (tm *TokenManager) RevokeAllForUser(ctx context.Context, userID int64) error {
	return tm.tokenRepo.DeleteByUserID(ctx, userID)
}
