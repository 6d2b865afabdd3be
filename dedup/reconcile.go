package dedup

import (
	"context"
	"log/slog"

	"github.com/lexandro/dupwatch/fingerprint"
	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/metrics"
	"github.com/lexandro/dupwatch/store"
)

// Reconciler decides whether a stored fingerprint can be trusted or the file
// must be read again.
type Reconciler struct {
	FS     fsys.Filesystem
	Store  store.Store
	Logger *slog.Logger
}

// Reconciled is the up-to-date view of one file.
type Reconciled struct {
	Record   store.FileRecord  // current size and mtime, reused or recomputed hash
	Previous *store.FileRecord // stored record before this observation, if any
	Computed bool              // the file content was read and hashed
}

// Reconcile opens the file at a canonical path and returns its current record.
// Directories yield (nil, nil). Open, stat and read failures are *fsys.IOError;
// lookup failures are *store.Error.
func (r *Reconciler) Reconcile(ctx context.Context, path string) (*Reconciled, error) {
	f, err := r.FS.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &fsys.IOError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, nil
	}
	modified := info.ModTime().Unix()

	previous, err := r.Store.FindByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &Reconciled{
		Record: store.FileRecord{
			Path:         path,
			Size:         info.Size(),
			LastModified: modified,
		},
		Previous: previous,
	}

	// Only an advanced modification time invalidates the stored hash.
	if previous != nil && previous.LastModified >= modified {
		result.Record.Hash = previous.Hash
	} else {
		r.Logger.Debug("(re)calculating hash", "path", path)
		hash, err := fingerprint.Sum(f)
		if err != nil {
			return nil, &fsys.IOError{Op: "read", Path: path, Err: err}
		}
		result.Record.Hash = hash
		result.Computed = true
	}

	metrics.RecordHash(result.Computed)
	return result, nil
}
