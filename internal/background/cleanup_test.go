package background

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTokenSweepStore struct {
	DeleteExpiredFunc func(ctx context.Context) (int64, error)
	calls             atomic.Int64
}

func (m *mockTokenSweepStore) DeleteExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	return 0, nil
}

type mockAttemptSweepStore struct {
	DeleteExpiredFunc func(ctx context.Context, retention time.Duration) (int64, error)
	calls             atomic.Int64
}

func (m *mockAttemptSweepStore) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	m.calls.Add(1)
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, retention)
	}
	return 0, nil
}

func newTestCleanupManager(tokens *mockTokenSweepStore, attempts *mockAttemptSweepStore) *CleanupManager {
	return NewCleanupManager(tokens, attempts, slog.Default(), time.Hour, time.Hour, 120*time.Minute)
}

func TestSweepTokens_DeletesExpired(t *testing.T) {
	tokens := &mockTokenSweepStore{
		DeleteExpiredFunc: func(ctx context.Context) (int64, error) {
			// Sweeps run under a deadline so a slow delete cannot pile up
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return 3, nil
		},
	}

	cm := newTestCleanupManager(tokens, &mockAttemptSweepStore{})
	cm.sweepTokens(context.Background())

	assert.Equal(t, int64(1), tokens.calls.Load())
}

func TestSweepAttempts_PassesRetention(t *testing.T) {
	var gotRetention time.Duration
	attempts := &mockAttemptSweepStore{
		DeleteExpiredFunc: func(ctx context.Context, retention time.Duration) (int64, error) {
			gotRetention = retention
			return 5, nil
		},
	}

	cm := newTestCleanupManager(&mockTokenSweepStore{}, attempts)
	cm.sweepAttempts(context.Background())

	assert.Equal(t, 120*time.Minute, gotRetention)
}

func TestSweep_StoreErrorSkipsCycle(t *testing.T) {
	tokens := &mockTokenSweepStore{
		DeleteExpiredFunc: func(ctx context.Context) (int64, error) {
			return 0, assert.AnError
		},
	}

	cm := newTestCleanupManager(tokens, &mockAttemptSweepStore{})

	// A failed sweep logs and returns; it must not panic or stop the loop
	require.NotPanics(t, func() {
		cm.sweepTokens(context.Background())
	})
}

func TestStart_SweepsImmediately(t *testing.T) {
	tokens := &mockTokenSweepStore{}
	attempts := &mockAttemptSweepStore{}

	cm := newTestCleanupManager(tokens, attempts)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return tokens.calls.Load() >= 1 && attempts.calls.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cm.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cm := newTestCleanupManager(&mockTokenSweepStore{}, &mockAttemptSweepStore{})

	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
