// internal/leaderboard/worker.go
package leaderboard

import (
	"context"
	"log/slog"
	"time"

	"hubcoin-miner/internal/ledger"
)

// Worker periodically recomputes the leaderboard from the account store and
// publishes it to the cache, so the API never ranks accounts on the hot path.
type Worker struct {
	service  ledger.LedgerService
	cache    *Cache
	interval time.Duration
	logger   *slog.Logger
}

// NewWorker creates a leaderboard Worker refreshing every interval.
func NewWorker(svc ledger.LedgerService, cache *Cache, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		service:  svc,
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the refresh loop until ctx is cancelled. It refreshes once
// immediately so a fresh deployment serves a board without waiting a tick.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Leaderboard worker started", "interval", w.interval)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Leaderboard worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Worker) refresh(ctx context.Context) {
	entries, err := w.service.Leaderboard(ctx)
	if err != nil {
		w.logger.Error("Leaderboard recompute failed", "error", err)
		return
	}
	if err := w.cache.Set(ctx, entries); err != nil {
		w.logger.Error("Leaderboard cache update failed", "error", err)
		return
	}
	w.logger.Debug("Leaderboard refreshed", "entries", len(entries))
}
