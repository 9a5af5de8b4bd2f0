package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rfontaine/authd/internal/models"
	"github.com/rfontaine/authd/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_INTEGRATION") != "" {
		os.Exit(0)
	}

	ctx := context.Background()

	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		panic("failed to set up test database: " + err.Error())
	}

	code := m.Run()

	_ = testDB.Teardown(ctx)
	os.Exit(code)
}

func setupRepos(t *testing.T) (*repositories.UserRepository, *repositories.TokenRepository, *repositories.AttemptRepository) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	users, tokens, attempts := InitializeRepositories(testDB.DB)
	return users, tokens, attempts
}

// ============================================================================
// UserRepository
// ============================================================================

func TestUserRepository_CreateAndFetch(t *testing.T) {
	users, _, _ := setupRepos(t)
	ctx := context.Background()

	created, err := users.Create(ctx, "Jane@Example.com", "hashed-password", "Jane Doe")
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.Nil(t, created.LastLogin)

	// Lookup normalizes the email the same way
	fetched, err := users.GetByEmail(ctx, "JANE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", byID.FullName)
}

func TestUserRepository_DuplicateEmailConflicts(t *testing.T) {
	users, _, _ := setupRepos(t)
	ctx := context.Background()

	_, err := users.Create(ctx, "jane@example.com", "hash-1", "Jane Doe")
	require.NoError(t, err)

	// Same address, different case: the unique constraint wins
	_, err = users.Create(ctx, "JANE@example.com", "hash-2", "Jane Doe")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUserRepository_EmailExists(t *testing.T) {
	users, _, _ := setupRepos(t)
	ctx := context.Background()

	exists, err := users.EmailExists(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = users.Create(ctx, "jane@example.com", "hash", "Jane Doe")
	require.NoError(t, err)

	exists, err = users.EmailExists(ctx, "Jane@Example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	users, _, _ := setupRepos(t)
	ctx := context.Background()

	created, err := users.Create(ctx, "jane@example.com", "hash", "Jane Doe")
	require.NoError(t, err)

	require.NoError(t, users.UpdateLastLogin(ctx, created.ID))

	fetched, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastLogin)
	assert.WithinDuration(t, time.Now(), *fetched.LastLogin, time.Minute)

	assert.ErrorIs(t, users.UpdateLastLogin(ctx, created.ID+999), models.ErrNotFound)
}

func TestUserRepository_GetMissing(t *testing.T) {
	users, _, _ := setupRepos(t)
	ctx := context.Background()

	_, err := users.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = users.GetByID(ctx, 12345)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// ============================================================================
// TokenRepository
// ============================================================================

func TestTokenRepository_CreateAndGet(t *testing.T) {
	_, tokens, _ := setupRepos(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "jane@example.com", "abc12345!", "Jane Doe")
	require.NoError(t, err)

	expiresAt := time.Now().Add(24 * time.Hour)
	require.NoError(t, tokens.Create(ctx, user.ID, "refresh-token-1", expiresAt))

	fetched, err := tokens.GetByToken(ctx, "refresh-token-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.UserID)
	// Owner details ride along for access-token minting
	assert.Equal(t, "jane@example.com", fetched.UserEmail)
	assert.Equal(t, "Jane Doe", fetched.UserFullName)
}

func TestTokenRepository_ExpiredTokenInvisible(t *testing.T) {
	_, tokens, _ := setupRepos(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "jane@example.com", "abc12345!", "Jane Doe")
	require.NoError(t, err)

	require.NoError(t, SeedToken(ctx, testDB.Pool, user.ID, "expired-token", time.Now().Add(-1*time.Hour)))

	_, err = tokens.GetByToken(ctx, "expired-token")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTokenRepository_DeleteByToken(t *testing.T) {
	_, tokens, _ := setupRepos(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "jane@example.com", "abc12345!", "Jane Doe")
	require.NoError(t, err)

	require.NoError(t, SeedToken(ctx, testDB.Pool, user.ID, "refresh-token-1", time.Now().Add(24*time.Hour)))

	require.NoError(t, tokens.DeleteByToken(ctx, "refresh-token-1"))
	_, err = tokens.GetByToken(ctx, "refresh-token-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Deleting again is a no-op
	assert.NoError(t, tokens.DeleteByToken(ctx, "refresh-token-1"))
}

func TestTokenRepository_DeleteByUserID(t *testing.T) {
	_, tokens, _ := setupRepos(t)
	ctx := context.Background()

	jane, err := SeedUser(ctx, testDB.Pool, "jane@example.com", "abc12345!", "Jane Doe")
	require.NoError(t, err)
	john, err := SeedUser(ctx, testDB.Pool, "john@example.com", "abc12345!", "John Doe")
	require.NoError(t, err)

	expiresAt := time.Now().Add(24 * time.Hour)
	require.NoError(t, SeedToken(ctx, testDB.Pool, jane.ID, "jane-token-1", expiresAt))
	require.NoError(t, SeedToken(ctx, testDB.Pool, jane.ID, "jane-token-2", expiresAt))
	require.NoError(t, SeedToken(ctx, testDB.Pool, john.ID, "john-token-1", expiresAt))

	require.NoError(t, tokens.DeleteByUserID(ctx, jane.ID))

	_, err = tokens.GetByToken(ctx, "jane-token-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = tokens.GetByToken(ctx, "jane-token-2")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Other users' sessions survive
	_, err = tokens.GetByToken(ctx, "john-token-1")
	assert.NoError(t, err)
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	_, tokens, _ := setupRepos(t)
	ctx := context.Background()

	user, err := SeedUser(ctx, testDB.Pool, "jane@example.com", "abc12345!", "Jane Doe")
	require.NoError(t, err)

	require.NoError(t, SeedToken(ctx, testDB.Pool, user.ID, "expired-1", time.Now().Add(-2*time.Hour)))
	require.NoError(t, SeedToken(ctx, testDB.Pool, user.ID, "expired-2", time.Now().Add(-1*time.Minute)))
	require.NoError(t, SeedToken(ctx, testDB.Pool, user.ID, "live-1", time.Now().Add(24*time.Hour)))

	deleted, err := tokens.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = tokens.GetByToken(ctx, "live-1")
	assert.NoError(t, err)
}

func TestTokenRepository_DeleteExpiredEmptyStore(t *testing.T) {
	_, tokens, _ := setupRepos(t)
	ctx := context.Background()

	deleted, err := tokens.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

// ============================================================================
// AttemptRepository
// ============================================================================

func TestAttemptRepository_SlidingWindowCount(t *testing.T) {
	_, _, attempts := setupRepos(t)
	ctx := context.Background()

	// Three in-window attempts, one outside, one for another action
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 1*time.Minute))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 5*time.Minute))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 14*time.Minute))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 20*time.Minute))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionSignup, 1*time.Minute))

	count, err := attempts.CountAttempts(ctx, "10.0.0.1", models.ActionLogin, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// A different IP has its own counter
	count, err = attempts.CountAttempts(ctx, "10.0.0.2", models.ActionLogin, 15*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAttemptRepository_RecordWithEmail(t *testing.T) {
	_, _, attempts := setupRepos(t)
	ctx := context.Background()

	email := "jane@example.com"
	require.NoError(t, attempts.Record(ctx, "10.0.0.1", models.ActionLogin, &email))
	require.NoError(t, attempts.Record(ctx, "10.0.0.1", models.ActionSignup, nil))

	count, err := attempts.CountAttempts(ctx, "10.0.0.1", models.ActionLogin, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAttemptRepository_DeleteByIP(t *testing.T) {
	_, _, attempts := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 1*time.Minute))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 2*time.Minute))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionSignup, 1*time.Minute))

	require.NoError(t, attempts.DeleteByIP(ctx, "10.0.0.1", models.ActionLogin))

	count, err := attempts.CountAttempts(ctx, "10.0.0.1", models.ActionLogin, 15*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The other action's history is untouched
	count, err = attempts.CountAttempts(ctx, "10.0.0.1", models.ActionSignup, 60*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAttemptRepository_DeleteExpired(t *testing.T) {
	_, _, attempts := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 3*time.Hour))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 121*time.Minute))
	require.NoError(t, SeedAttempt(ctx, testDB.Pool, "10.0.0.1", models.ActionLogin, 10*time.Minute))

	deleted, err := attempts.DeleteExpired(ctx, 120*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := attempts.CountAttempts(ctx, "10.0.0.1", models.ActionLogin, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAttemptRepository_DeleteExpiredEmptyStore(t *testing.T) {
	_, _, attempts := setupRepos(t)
	ctx := context.Background()

	deleted, err := attempts.DeleteExpired(ctx, 120*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
