package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfontaine/authd/internal/database"
	"github.com/rfontaine/authd/internal/models"
)

// TokenRepository handles database operations for refresh tokens. Expiry is
// part of the lookup predicate: an expired row is indistinguishable from an
// absent one to callers, and validity is re-checked on every use.
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{pool: db.Pool}
}

func (r *TokenRepository) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, userID, token, expiresAt)
	return database.MapPostgresError(err)
}

// GetByToken returns the token row joined with the owning user's email and
// full name, or models.ErrNotFound if the token is absent or expired.
func (r *TokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT t.id, t.user_id, t.token, t.expires_at, t.created_at, u.email, u.full_name
		FROM tokens t
		JOIN users u ON t.user_id = u.id
		WHERE t.token = $1 AND t.expires_at > NOW()
	`

	var rt models.RefreshToken
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt,
		&rt.UserEmail, &rt.UserFullName,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rt, nil
}

// DeleteByToken removes a single token. Deleting an absent token is a no-op,
// which makes revocation idempotent.
func (r *TokenRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM tokens WHERE token = $1`

	_, err := r.pool.Exec(ctx, query, token)
	return database.MapPostgresError(err)
}

// DeleteByUserID removes every token owned by a user ("logout everywhere").
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	query := `DELETE FROM tokens WHERE user_id = $1`

	_, err := r.pool.Exec(ctx, query, userID)
	return database.MapPostgresError(err)
}

// DeleteExpired removes all tokens past their expiry, returning how many
// rows were deleted.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM tokens WHERE expires_at < NOW()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
