package fsys

import (
	"errors"
	"fmt"
)

// IOError is a failed open, read, stat or remove on a concrete path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err is (or wraps) an *IOError.
func IsIOError(err error) bool {
	var e *IOError
	return errors.As(err, &e)
}

// PathResolutionError means a path could not be made absolute and canonical,
// e.g. a broken symlink or a permission denial on a parent directory.
type PathResolutionError struct {
	Path string
	Err  error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("resolving path %q: %v", e.Path, e.Err)
}

func (e *PathResolutionError) Unwrap() error { return e.Err }

// IsPathResolution reports whether err is (or wraps) a *PathResolutionError.
func IsPathResolution(err error) bool {
	var e *PathResolutionError
	return errors.As(err, &e)
}
