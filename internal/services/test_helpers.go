package services

import (
	"context"
	"time"

	"github.com/rfontaine/authd/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc          func(ctx context.Context, email, passwordHash, fullName string) (*models.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc         func(ctx context.Context, id int64) (*models.User, error)
	EmailExistsFunc     func(ctx context.Context, email string) (bool, error)
	UpdateLastLoginFunc func(ctx context.Context, id int64) error
}

func (m *MockUserRepository) Create(ctx context.Context, email, passwordHash, fullName string) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, email, passwordHash, fullName)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFunc != nil {
		return m.EmailExistsFunc(ctx, email)
	}
	return false, nil
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id)
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueAccessTokenFunc   func(userID int64, email string) (string, error)
	IssueRefreshTokenFunc  func(ctx context.Context, userID int64) (string, error)
	RevokeRefreshTokenFunc func(ctx context.Context, token string) error
	RevokeAllForUserFunc   func(ctx context.Context, userID int64) error
}

func (m *MockTokenIssuer) IssueAccessToken(userID int64, email string) (string, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(userID, email)
	}
	return "access-token", nil
}

func (m *MockTokenIssuer) IssueRefreshToken(ctx context.Context, userID int64) (string, error) {
	if m.IssueRefreshTokenFunc != nil {
		return m.IssueRefreshTokenFunc(ctx, userID)
	}
	return "refresh-token", nil
}

func (m *MockTokenIssuer) RevokeRefreshToken(ctx context.Context, token string) error {
	if m.RevokeRefreshTokenFunc != nil {
		return m.RevokeRefreshTokenFunc(ctx, token)
	}
	return nil
}

func (m *MockTokenIssuer) RevokeAllForUser(ctx context.Context, userID int64) error {
	if m.RevokeAllForUserFunc != nil {
		return m.RevokeAllForUserFunc(ctx, userID)
	}
	return nil
}

// MockAttemptRepository implements AttemptRepository for testing
type MockAttemptRepository struct {
	RecordFunc        func(ctx context.Context, ip, action string, attemptedEmail *string) error
	CountAttemptsFunc func(ctx context.Context, ip, action string, window time.Duration) (int, error)
	DeleteByIPFunc    func(ctx context.Context, ip, action string) error
}

func (m *MockAttemptRepository) Record(ctx context.Context, ip, action string, attemptedEmail *string) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, ip, action, attemptedEmail)
	}
	return nil
}

func (m *MockAttemptRepository) CountAttempts(ctx context.Context, ip, action string, window time.Duration) (int, error) {
	if m.CountAttemptsFunc != nil {
		return m.CountAttemptsFunc(ctx, ip, action, window)
	}
	return 0, nil
}

func (m *MockAttemptRepository) DeleteByIP(ctx context.Context, ip, action string) error {
	if m.DeleteByIPFunc != nil {
		return m.DeleteByIPFunc(ctx, ip, action)
	}
	return nil
}

// NewTestUser returns a user with a bcrypt hash of the given password
func NewTestUser(id int64, email, fullName, passwordHash string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
