package dedup

import (
	"errors"
	"fmt"
)

// ErrStopAfterTest is returned once the StopAfterTest report has been written.
// The caller is expected to flush the report and terminate with a non-zero status.
var ErrStopAfterTest = errors.New("stopped after test run")

// DeletionFailedError is one duplicate that could not be removed from disk or store.
type DeletionFailedError struct {
	Path string
	Err  error
}

func (e *DeletionFailedError) Error() string {
	return fmt.Sprintf("deletion failed for %q: %v", e.Path, e.Err)
}

func (e *DeletionFailedError) Unwrap() error { return e.Err }

// IsDeletionFailed reports whether err is (or wraps) a *DeletionFailedError.
func IsDeletionFailed(err error) bool {
	var e *DeletionFailedError
	return errors.As(err, &e)
}
