// Package fsys is the filesystem capability consumed by the duplicate pipeline.
// The production implementation wraps afero so tests can run on an in-memory tree.
package fsys

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// File is an open, readable file handle.
type File interface {
	io.Reader
	io.Closer
	Stat() (os.FileInfo, error)
}

// Filesystem is the small set of operations the pipeline needs from the OS.
type Filesystem interface {
	// Canonicalize returns the absolute, cleaned (and on the OS, symlink-resolved) path.
	Canonicalize(path string) (string, error)
	// Open opens path for reading.
	Open(path string) (File, error)
	// Walk visits root and everything below it in lexical order.
	Walk(root string, fn filepath.WalkFunc) error
	// Remove deletes a single file.
	Remove(path string) error
	// Exists reports whether path is present.
	Exists(path string) (bool, error)
}

// Afero implements Filesystem on top of an afero.Fs.
type Afero struct {
	fs              afero.Fs
	resolveSymlinks bool
}

// NewOS returns the real filesystem. Canonical paths have symlinks resolved.
func NewOS() *Afero {
	return &Afero{fs: afero.NewOsFs(), resolveSymlinks: true}
}

// New wraps an arbitrary afero.Fs (typically afero.NewMemMapFs in tests).
func New(fs afero.Fs) *Afero {
	return &Afero{fs: fs}
}

// Fs exposes the underlying afero filesystem.
func (a *Afero) Fs() afero.Fs {
	return a.fs
}

func (a *Afero) Canonicalize(path string) (string, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return "", &PathResolutionError{Path: path, Err: err}
	}

	if a.resolveSymlinks {
		resolved, err := filepath.EvalSymlinks(absolutePath)
		if err != nil {
			return "", &PathResolutionError{Path: path, Err: err}
		}
		return resolved, nil
	}

	// Non-OS filesystems have no symlinks; still require the path to exist,
	// matching canonicalize semantics on the real filesystem.
	if _, err := a.fs.Stat(absolutePath); err != nil {
		return "", &PathResolutionError{Path: path, Err: err}
	}
	return absolutePath, nil
}

func (a *Afero) Open(path string) (File, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

func (a *Afero) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(a.fs, root, fn)
}

func (a *Afero) Remove(path string) error {
	if err := a.fs.Remove(path); err != nil {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

func (a *Afero) Exists(path string) (bool, error) {
	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return false, &IOError{Op: "stat", Path: path, Err: err}
	}
	return exists, nil
}
