package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// runEvery calls poll, then waits interval after it returns, until ctx is done.
// The wait starts after a poll finishes, so polls never overlap.
func runEvery(ctx context.Context, name string, interval time.Duration, poll func(ctx context.Context)) error {
	slog.Info("Starting "+name+"...", "interval", interval)
	t := time.NewTimer(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping " + name)
			return nil
		case <-t.C:
			poll(ctx)
			t.Reset(interval)
		}
	}
}
