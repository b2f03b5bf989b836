// Package cache provides an in-process LRU with TTL.
package cache

import (
	"context"
	"time"

	"myfinance/internal/log"
)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// RunCleanup calls CleanExpired on every cache each interval until ctx is
// done. It always returns nil so it can run inside an errgroup.
func RunCleanup(ctx context.Context, interval time.Duration, logger *log.Logger, caches ...Cleaner) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed := 0
			for _, c := range caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				logger.DebugContext(ctx, "Expired cache entries removed", log.FieldCount, removed)
			}
		}
	}
}
