// Package watcher turns fsnotify notifications for a directory tree into
// debounced, per-path change events.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// IgnoreChecker is used by the watcher to check if a path should be ignored.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Options configures a Watcher.
type Options struct {
	RootDir  string
	Ignore   IgnoreChecker
	Debounce time.Duration // DefaultDebounce when zero
	Logger   *slog.Logger
}

// Watcher provides recursive file system watching with debouncing.
type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	debouncer     *Debouncer
	ignoreChecker IgnoreChecker
	rootDir       string
	logger        *slog.Logger
}

// NewWatcher creates a recursive file watcher on the given root directory.
// It registers all non-ignored subdirectories for watching.
func NewWatcher(options Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fsWatcher:     fsWatcher,
		debouncer:     NewDebouncer(options.Debounce),
		ignoreChecker: options.Ignore,
		rootDir:       options.RootDir,
		logger:        logger,
	}

	if err := w.addTree(options.RootDir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addTree walks root and adds every non-ignored directory to the watch list.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries that can't be read
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootDir && w.ignoreChecker != nil && w.ignoreChecker.ShouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// Events returns the channel that receives debounced file system events.
// The channel is closed by Close.
func (w *Watcher) Events() <-chan []Event {
	return w.debouncer.Output()
}

// Run listens for file system events until ctx is done or the watcher is closed.
// Returning because ctx ended leaves the watcher intact, so Run may be called again.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent converts a single fsnotify event into a debounced event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// A new directory is watched (with everything already inside it) but not emitted.
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if w.ignoreChecker == nil || !w.ignoreChecker.ShouldIgnoreDir(path) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
				w.emitExisting(path)
			}
			return
		}
	}

	if w.ignoreChecker != nil && w.ignoreChecker.ShouldIgnore(path) {
		return
	}

	op, ok := translateOp(event.Op)
	if !ok {
		return
	}
	w.debouncer.Add(path, op)
}

// emitExisting reports files that were already present when a directory was
// moved or copied into the tree, since no create events arrive for them.
func (w *Watcher) emitExisting(dir string) {
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.ignoreChecker != nil && w.ignoreChecker.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.ignoreChecker == nil || !w.ignoreChecker.ShouldIgnore(path) {
			w.debouncer.Add(path, OpCreate)
		}
		return nil
	})
}

func translateOp(op fsnotify.Op) (EventOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Chmod):
		return OpChmod, true
	default:
		return 0, false
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	err := w.fsWatcher.Close()
	w.debouncer.Stop()
	return err
}
