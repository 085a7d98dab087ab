package services

import (
	"context"
	"log/slog"
	"time"
)

// StartPurgeLoop removes abandoned drafts every interval until ctx is done.
func StartPurgeLoop(ctx context.Context, drafts *DraftStore, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purgeOnce(ctx, drafts, ttl)
			}
		}
	}()
}

func purgeOnce(ctx context.Context, drafts *DraftStore, ttl time.Duration) int64 {
	n, err := drafts.PurgeStale(ctx, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "purge stale drafts", "error", err)
		return 0
	}
	if n > 0 {
		slog.InfoContext(ctx, "purged stale drafts", "count", n, "ttl", ttl.String())
	}
	return n
}
