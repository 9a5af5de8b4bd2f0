package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rfontaine/authd/internal/database"
	"github.com/rfontaine/authd/internal/models"
	"github.com/rfontaine/authd/internal/repositories"
	"github.com/rfontaine/authd/migrations"
	pkgauth "github.com/rfontaine/authd/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs the embedded
// migrations, and returns a ready TestDB.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("authd"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.Migrate(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"rate_limits",
		"tokens",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// InitializeRepositories creates all repository instances from the database wrapper
func InitializeRepositories(db *database.DB) (
	*repositories.UserRepository,
	*repositories.TokenRepository,
	*repositories.AttemptRepository,
) {
	return repositories.NewUserRepository(db),
		repositories.NewTokenRepository(db),
		repositories.NewAttemptRepository(db)
}

// SeedUser inserts a test user with a bcrypt-hashed password
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email, password, fullName string) (*models.User, error) {
	hashedPassword, err := pkgauth.HashPassword(password, pkgauth.DefaultBcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, full_name, created_at, updated_at, last_login
	`

	var user models.User
	err = pool.QueryRow(ctx, query, email, hashedPassword, fullName).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLogin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedToken inserts a refresh token with the given expiry
func SeedToken(ctx context.Context, pool *pgxpool.Pool, userID int64, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`

	if _, err := pool.Exec(ctx, query, userID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	return nil
}

// SeedAttempt inserts a rate-limit attempt record backdated by age
func SeedAttempt(ctx context.Context, pool *pgxpool.Pool, ip, action string, age time.Duration) error {
	query := `
		INSERT INTO rate_limits (ip_address, action, attempt_time)
		VALUES ($1, $2, NOW() - $3::interval)
	`

	interval := fmt.Sprintf("%d seconds", int64(age.Seconds()))
	if _, err := pool.Exec(ctx, query, ip, action, interval); err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}

	return nil
}
