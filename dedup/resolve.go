package dedup

import (
	"context"
	"log/slog"

	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/metrics"
	"github.com/lexandro/dupwatch/store"
)

// Resolver turns a fingerprint into the set of files that currently carry it,
// pruning records whose file has disappeared.
type Resolver struct {
	FS     fsys.Filesystem
	Store  store.Store
	Logger *slog.Logger
}

// Resolve returns the surviving records for hash. Stale records are deleted
// best-effort: a failed delete is logged and the record is still excluded.
func (r *Resolver) Resolve(ctx context.Context, hash string) ([]store.FileRecord, error) {
	candidates, err := r.Store.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	result := make([]store.FileRecord, 0, len(candidates))
	for _, candidate := range candidates {
		exists, err := r.FS.Exists(candidate.Path)
		if err != nil {
			// Unknown state: neither prune the record nor act on the file.
			r.Logger.Warn("existence check failed", "path", candidate.Path, "error", err)
			continue
		}
		if exists {
			result = append(result, candidate)
			continue
		}
		r.prune(ctx, candidate.Path)
	}
	return result, nil
}

// PruneStale walks every stored record and removes those whose file is gone.
// Returns the number of pruned records.
func (r *Resolver) PruneStale(ctx context.Context, enumerator store.Enumerator) (int, error) {
	records, err := enumerator.AllRecords(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}
		exists, err := r.FS.Exists(record.Path)
		if err != nil || exists {
			continue
		}
		if r.prune(ctx, record.Path) {
			pruned++
		}
	}
	return pruned, nil
}

func (r *Resolver) prune(ctx context.Context, path string) bool {
	if err := r.Store.DeleteByPath(ctx, path); err != nil {
		r.Logger.Warn("failed to prune stale record", "path", path, "error", err)
		return false
	}
	r.Logger.Debug("pruned stale record", "path", path)
	metrics.RecordStalePruned()
	return true
}
