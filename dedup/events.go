package dedup

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/lexandro/dupwatch/watcher"
)

// reloader is implemented by ignore matchers that can re-read their ignore file.
type reloader interface {
	IgnoreFile() string
	Reload()
}

// HandleEvents consumes debounced batches until ctx is done or the channel
// closes. Each event goes through the same pipeline as a full scan, one at a
// time. Returns ErrStopAfterTest when an event triggers it.
func (s *Scanner) HandleEvents(ctx context.Context, batches <-chan []watcher.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			for _, event := range batch {
				if err := s.HandleEvent(ctx, event); err != nil {
					return err
				}
			}
		}
	}
}

// HandleEvent processes a single change notification. Only create and write
// events reach the pipeline; removals are picked up lazily when a duplicate
// set is resolved or by the next resync.
func (s *Scanner) HandleEvent(ctx context.Context, event watcher.Event) error {
	if r, ok := s.Ignore.(reloader); ok && r.IgnoreFile() != "" &&
		filepath.Clean(event.Path) == filepath.Clean(r.IgnoreFile()) {
		s.Logger.Info("reloading ignore file", "path", event.Path)
		r.Reload()
		return nil
	}

	switch event.Op {
	case watcher.OpCreate, watcher.OpWrite:
	default:
		s.Logger.Debug("event ignored", "path", event.Path, "op", event.Op.String())
		return nil
	}

	s.Logger.Debug("file event", "path", event.Path, "op", event.Op.String())
	_, err := s.processPath(ctx, event.Path)
	switch {
	case err == nil, errors.Is(err, errIgnored):
		return nil
	case errors.Is(err, ErrStopAfterTest):
		return err
	case ctx.Err() != nil:
		return nil
	default:
		// Already logged and reported; the watch loop keeps going.
		return nil
	}
}
