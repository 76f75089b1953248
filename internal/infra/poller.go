package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crypto_dash/internal/domain"
)

// Poller periodically refreshes the reconciled watchlist snapshots
// and pushes them to onUpdate (the websocket hub).
type Poller struct {
	provider     domain.SnapshotProvider
	onUpdate     func([]domain.Coin)
	pollInterval time.Duration
	retryBase    time.Duration
	maxAttempts  int
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewPoller creates a new watchlist poller
func NewPoller(provider domain.SnapshotProvider, onUpdate func([]domain.Coin)) *Poller {
	return &Poller{
		provider:     provider,
		onUpdate:     onUpdate,
		pollInterval: 60 * time.Second, // Default: 1 minute
		retryBase:    baseDelay,
		maxAttempts:  3,
	}
}

// NewPollerWithConfig creates a poller with a custom interval
func NewPollerWithConfig(provider domain.SnapshotProvider, onUpdate func([]domain.Coin), pollInterval time.Duration) *Poller {
	p := NewPoller(provider, onUpdate)
	if pollInterval > 0 {
		p.pollInterval = pollInterval
	}
	return p
}

// Start begins polling for watchlist updates
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	// Fetch immediately on start
	if err := p.Refresh(ctx); err != nil {
		slog.Warn("Initial watchlist refresh failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Watchlist polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Watchlist polling stopped")
				return
			case <-ticker.C:
				if err := p.Refresh(ctx); err != nil {
					slog.Warn("Watchlist refresh failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// Refresh fetches the reconciled watchlist with retry logic and notifies onUpdate
func (p *Poller) Refresh(ctx context.Context) error {
	var lastErr error
	for i := 0; i < p.maxAttempts; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s
			delay := ScaledBackoff(p.retryBase, i-1)
			slog.Info("Retrying watchlist refresh", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		coins, err := p.provider.Watchlist(ctx)
		if err == nil {
			p.publish(coins)
			return nil
		}
		lastErr = err
		slog.Warn("Watchlist refresh attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))

		if !domain.IsRetriable(err) {
			break
		}
	}
	return lastErr
}

func (p *Poller) publish(coins []domain.Coin) {
	if p.onUpdate != nil {
		p.onUpdate(coins)
	}
}

// Stop stops the polling
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}
