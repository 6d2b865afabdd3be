package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/tools"
)

// runPeriodicResync re-runs rescan at the given interval until ctx ends.
// Watch mode ignores remove events, so this is what eventually drops records
// of deleted files and picks up changes the watcher missed.
func runPeriodicResync(ctx context.Context, interval time.Duration, rescan tools.RescanFunc, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic resync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic resync stopped")
			return nil
		case <-ticker.C:
			result, pruned, err := rescan(ctx)
			switch {
			case errors.Is(err, dedup.ErrStopAfterTest):
				return err
			case err != nil && ctx.Err() != nil:
				return nil
			case err != nil:
				logger.Error("resync failed", "error", err)
			case pruned > 0 || result.Duplicates > 0:
				logger.Info("resync complete",
					"files", result.Files,
					"duplicates", result.Duplicates,
					"pruned", pruned,
					"duration", result.Duration,
				)
			default:
				logger.Debug("resync complete, store is in sync", "files", result.Files, "duration", result.Duration)
			}
		}
	}
}
