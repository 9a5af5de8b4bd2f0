package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rfontaine/authd/internal/models"
	"github.com/rfontaine/authd/internal/validation"
	pkgauth "github.com/rfontaine/authd/pkg/auth"
	pkglogger "github.com/rfontaine/authd/pkg/logger"
)

// UserRepository defines the interface for user-record operations
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, fullName string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// TokenIssuer is the slice of the token manager the auth service needs.
type TokenIssuer interface {
	IssueAccessToken(userID int64, email string) (string, error)
	IssueRefreshToken(ctx context.Context, userID int64) (string, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// ValidationError carries accumulated per-field violation messages for
// expected-invalid signup input.
type ValidationError struct {
	Details map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// AuthService handles signup, login, logout, and profile retrieval.
type AuthService struct {
	userRepo    UserRepository
	tokens      TokenIssuer
	bcryptCost  int
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo UserRepository, tokens TokenIssuer, bcryptCost int, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Signup validates input, hashes the password, and creates the user.
// Duplicate emails surface as models.ErrConflict; the store's uniqueness
// constraint decides concurrent races, the EmailExists call only shortcuts
// the common case.
func (s *AuthService) Signup(ctx context.Context, email, password, fullName string) (*models.User, error) {
	emailRes := validation.Email(email)
	passwordRes := validation.Password(password, email)
	nameRes := validation.FullName(fullName)

	details := map[string][]string{}
	if !emailRes.Valid {
		details["email"] = emailRes.Errors
	}
	if !passwordRes.Valid {
		details["password"] = passwordRes.Errors
	}
	if !nameRes.Valid {
		details["fullName"] = nameRes.Errors
	}
	if len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}

	exists, err := s.userRepo.EmailExists(ctx, emailRes.Value)
	if err != nil {
		s.logger.Error("failed to check email existence", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		return nil, models.ErrConflict
	}

	passwordHash, err := pkgauth.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.userRepo.Create(ctx, emailRes.Value, passwordHash, nameRes.Value)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost a concurrent signup race for the same email
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", pkglogger.SanitizedEmail(user.Email)))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "signup_success",
		UserID:    user.ID,
		Success:   true,
	})

	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown email and wrong password both return models.ErrUnauthorized so
// the transport's message cannot be used for account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*LoginResult, error) {
	emailRes := validation.Email(email)
	if !emailRes.Valid {
		return nil, &ValidationError{Details: map[string][]string{"email": emailRes.Errors}}
	}
	if password == "" {
		return nil, &ValidationError{Details: map[string][]string{"password": {"Password is required"}}}
	}

	user, err := s.userRepo.GetByEmail(ctx, emailRes.Value)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:      "login_failed",
				IPAddress:      ipAddress,
				AttemptedEmail: emailRes.Value,
				FailureReason:  "unknown_email",
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_password",
		})
		return nil, models.ErrUnauthorized
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to update last login",
			slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to issue access token",
			slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue refresh token",
			slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID), slog.String("ip_address", ipAddress))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Logout revokes the supplied refresh token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if refreshToken != "" {
		if err := s.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
			s.logger.Error("failed to revoke refresh token",
				slog.Int64("user_id", userID), slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.logger.Info("user logged out", slog.Int64("user_id", userID))
	return nil
}

// LogoutAll revokes every refresh token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke user tokens",
			slog.Int64("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out everywhere", slog.Int64("user_id", userID))
	return nil
}

// Profile fetches the user record behind a verified access token. The
// record can vanish between token issuance and this read; that surfaces as
// models.ErrNotFound.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by id",
			slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}
