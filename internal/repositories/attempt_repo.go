package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfontaine/authd/internal/database"
)

// AttemptRepository handles database operations for rate-limit attempt
// records. Counting is always relative to the database's NOW() so every
// check sees a fresh sliding window.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{pool: db.Pool}
}

// Record appends one attempt for ip+action. attempt_time is assigned by the
// store.
func (r *AttemptRepository) Record(ctx context.Context, ip, action string, attemptedEmail *string) error {
	query := `
		INSERT INTO rate_limits (ip_address, action, attempted_email)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, ip, action, attemptedEmail)
	return database.MapPostgresError(err)
}

// CountAttempts counts records for ip+action within the trailing window.
func (r *AttemptRepository) CountAttempts(ctx context.Context, ip, action string, window time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM rate_limits
		WHERE ip_address = $1 AND action = $2 AND attempt_time > NOW() - $3::interval
	`

	var count int
	err := r.pool.QueryRow(ctx, query, ip, action, durationToInterval(window)).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return count, nil
}

// DeleteByIP clears the attempt history for ip+action. A single success
// resets the counter entirely.
func (r *AttemptRepository) DeleteByIP(ctx context.Context, ip, action string) error {
	query := `DELETE FROM rate_limits WHERE ip_address = $1 AND action = $2`

	_, err := r.pool.Exec(ctx, query, ip, action)
	return database.MapPostgresError(err)
}

// DeleteExpired removes attempt records older than the retention window,
// returning how many rows were deleted.
func (r *AttemptRepository) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	query := `DELETE FROM rate_limits WHERE attempt_time < NOW() - $1::interval`

	result, err := r.pool.Exec(ctx, query, durationToInterval(retention))
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

func durationToInterval(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}
