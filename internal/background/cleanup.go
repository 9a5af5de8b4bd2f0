package background

import (
	"context"
	"log/slog"
	"time"
)

// TokenSweepStore deletes refresh tokens past their expiry.
type TokenSweepStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// AttemptSweepStore deletes attempt records older than the retention window.
type AttemptSweepStore interface {
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupManager runs two independent periodic sweeps: expired refresh
// tokens and stale rate-limit attempt records. Each task is serialized by
// its own loop (a sweep finishes or times out before the next tick is
// handled) and a failed sweep only skips that cycle.
type CleanupManager struct {
	tokenStore       TokenSweepStore
	attemptStore     AttemptSweepStore
	logger           *slog.Logger
	tokenInterval    time.Duration
	attemptInterval  time.Duration
	attemptRetention time.Duration
	stopCh           chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	tokenStore TokenSweepStore,
	attemptStore AttemptSweepStore,
	logger *slog.Logger,
	tokenInterval, attemptInterval, attemptRetention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		tokenStore:       tokenStore,
		attemptStore:     attemptStore,
		logger:           logger,
		tokenInterval:    tokenInterval,
		attemptInterval:  attemptInterval,
		attemptRetention: attemptRetention,
		stopCh:           make(chan struct{}),
	}
}

// Start launches both sweep loops and blocks until Stop is called or the
// context is cancelled.
func (cm *CleanupManager) Start(ctx context.Context) {
	go cm.runLoop(ctx, "expired_tokens", cm.tokenInterval, cm.sweepTokens)
	cm.runLoop(ctx, "stale_attempts", cm.attemptInterval, cm.sweepAttempts)
}

func (cm *CleanupManager) runLoop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on startup
	sweep(ctx)

	for {
		select {
		case <-ticker.C:
			sweep(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup task stopped", slog.String("task", name))
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup task context cancelled", slog.String("task", name))
			return
		}
	}
}

func (cm *CleanupManager) sweepTokens(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.tokenStore.DeleteExpired(sweepCtx)
	if err != nil {
		cm.logger.Error("failed to sweep expired tokens", slog.Any("error", err))
		return
	}

	cm.logger.Info("expired token sweep completed", slog.Int64("rows_deleted", rowsDeleted))
}

func (cm *CleanupManager) sweepAttempts(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.attemptStore.DeleteExpired(sweepCtx, cm.attemptRetention)
	if err != nil {
		cm.logger.Error("failed to sweep stale attempts", slog.Any("error", err))
		return
	}

	cm.logger.Info("stale attempt sweep completed", slog.Int64("rows_deleted", rowsDeleted))
}

// Stop signals both sweep loops to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
