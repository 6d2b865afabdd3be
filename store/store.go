// Package store persists FileRecords behind a small keyed-table capability so the
// duplicate detection logic never sees backend-specific queries.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Store is the persisted cache of file fingerprints.
// There is no update-in-place; callers model updates as delete-then-insert.
type Store interface {
	// CreateSchema prepares the backing table or index. Safe to call repeatedly.
	CreateSchema(ctx context.Context) error
	// FindByHash returns every record with the given fingerprint, ordered by path.
	FindByHash(ctx context.Context, hash string) ([]FileRecord, error)
	// FindByPath returns the record for path, or nil when none exists.
	FindByPath(ctx context.Context, path string) (*FileRecord, error)
	// DeleteByPath removes the record for path. Deleting a missing path is not an error.
	DeleteByPath(ctx context.Context, path string) error
	// Insert adds a new record. Inserting a path that already exists fails with ErrDuplicatePath.
	Insert(ctx context.Context, record FileRecord) error
	Close() error
}

// Enumerator is implemented by backends that can list their whole content.
// Used by status reporting and the periodic resync prune.
type Enumerator interface {
	AllRecords(ctx context.Context) ([]FileRecord, error)
}

// ErrDuplicatePath is wrapped by Insert when the path is already recorded.
var ErrDuplicatePath = errors.New("record already exists for path")

// Error is a failed store operation (query, insert, delete or schema creation).
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("store %s %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsStoreError reports whether err is (or wraps) a store *Error.
func IsStoreError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
