// Package sweeper runs periodic expiry passes over stores that lack native TTLs.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Sweepable removes expired entries and reports how many it removed.
type Sweepable interface {
	Sweep(ctx context.Context) (int, error)
}

// Run calls s.Sweep every interval until ctx is done.
func Run(ctx context.Context, name string, s Sweepable, interval time.Duration) {
	if interval <= 0 {
		slog.Warn("sweeper disabled, non-positive interval", "name", name, "interval", interval)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err != nil {
				slog.Warn("sweep failed", "name", name, "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("sweep removed expired entries", "name", name, "removed", removed)
			}
		}
	}
}
