package ledgerclient

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
)

// Cache holds the client's copy of the pool totals. The snapshot only ever
// changes by wholesale replacement from a ledger response; a failed call
// leaves the previous snapshot in place.
type Cache struct {
	ledger Ledger

	mu    sync.RWMutex
	stats models.AggregateStats
}

func NewCache(l Ledger) *Cache {
	return &Cache{ledger: l, stats: models.Pool{}.Stats()}
}

// Snapshot returns the last stats the ledger reported.
func (c *Cache) Snapshot() models.AggregateStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Refresh fetches stats from the ledger.
func (c *Cache) Refresh(ctx context.Context) (models.AggregateStats, error) {
	stats, err := c.ledger.Stats(ctx)
	if err != nil {
		logger.Warn("stats refresh failed, keeping previous snapshot", zap.Error(err))
		return c.Snapshot(), err
	}
	c.set(stats)
	return stats, nil
}

// Stats refreshes and returns the snapshot, so the cache can stand in for a
// Ledger.
func (c *Cache) Stats(ctx context.Context) (models.AggregateStats, error) {
	return c.Refresh(ctx)
}

// Register forwards to the ledger and adopts the returned stats.
func (c *Cache) Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error) {
	res, err := c.ledger.Register(ctx, reg)
	if err != nil {
		return res, err
	}
	c.set(res.Stats)
	return res, nil
}

// Draw forwards to the ledger and refreshes stats after a successful draw.
func (c *Cache) Draw(ctx context.Context) (models.WinnerRecord, error) {
	winner, err := c.ledger.Draw(ctx)
	if err != nil {
		return winner, err
	}
	if _, err := c.Refresh(ctx); err != nil {
		logger.Debug("post-draw refresh failed", zap.Error(err))
	}
	return winner, nil
}

func (c *Cache) set(stats models.AggregateStats) {
	c.mu.Lock()
	c.stats = stats
	c.mu.Unlock()
}
