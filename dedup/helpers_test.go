package dedup

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/store"
)

// sha512Hex is the expected stored hash for content.
func sha512Hex(content string) string {
	sum := sha512.Sum512([]byte(content))
	return hex.EncodeToString(sum[:])
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingFS wraps an afero-backed filesystem and counts reads and removals.
// Paths in failRemove and failExists return an error instead.
type countingFS struct {
	*fsys.Afero

	mu         sync.Mutex
	reads      map[string]int
	removes    []string
	failRemove map[string]bool
	failExists map[string]bool
}

func newCountingFS(t *testing.T, files map[string]string) *countingFS {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
		setModTime(t, fs, path, 1000)
	}
	return &countingFS{
		Afero:      fsys.New(fs),
		reads:      make(map[string]int),
		failRemove: make(map[string]bool),
		failExists: make(map[string]bool),
	}
}

func setModTime(t *testing.T, fs afero.Fs, path string, unix int64) {
	t.Helper()
	mtime := time.Unix(unix, 0)
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

// write replaces the content of path and sets its modification time.
func (c *countingFS) write(t *testing.T, path, content string, unix int64) {
	t.Helper()
	require.NoError(t, afero.WriteFile(c.Fs(), path, []byte(content), 0644))
	setModTime(t, c.Fs(), path, unix)
}

func (c *countingFS) readCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[path]
}

func (c *countingFS) removed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.removes...)
}

func (c *countingFS) Open(path string) (fsys.File, error) {
	f, err := c.Afero.Open(path)
	if err != nil {
		return nil, err
	}
	return &countingFile{File: f, onRead: func() {
		c.mu.Lock()
		c.reads[path]++
		c.mu.Unlock()
	}}, nil
}

func (c *countingFS) Remove(path string) error {
	if c.failRemove[path] {
		return &fsys.IOError{Op: "remove", Path: path, Err: errors.New("permission denied")}
	}
	c.mu.Lock()
	c.removes = append(c.removes, path)
	c.mu.Unlock()
	return c.Afero.Remove(path)
}

func (c *countingFS) Exists(path string) (bool, error) {
	if c.failExists[path] {
		return false, &fsys.IOError{Op: "stat", Path: path, Err: errors.New("i/o error")}
	}
	return c.Afero.Exists(path)
}

type countingFile struct {
	fsys.File
	onRead func()
}

func (f *countingFile) Read(p []byte) (int, error) {
	f.onRead()
	return f.File.Read(p)
}

// countingStore records DeleteByPath calls on top of an in-memory store.
type countingStore struct {
	*store.Memory

	mu      sync.Mutex
	deletes []string
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: store.NewMemory()}
}

func (s *countingStore) DeleteByPath(ctx context.Context, path string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, path)
	s.mu.Unlock()
	return s.Memory.DeleteByPath(ctx, path)
}

func (s *countingStore) deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

type fixture struct {
	fs      *countingFS
	store   *countingStore
	report  *Report
	scanner *Scanner
}

func newFixture(t *testing.T, files map[string]string, action Action, preferences ...string) *fixture {
	t.Helper()
	fs := newCountingFS(t, files)
	st := newCountingStore()
	require.NoError(t, st.CreateSchema(context.Background()))

	report := NewReport(nil)
	pipeline := NewPipeline(PipelineOptions{
		FS:          fs,
		Store:       st,
		Preferences: preferences,
		Action:      action,
		Report:      report,
		Logger:      discardLogger(),
	})
	return &fixture{
		fs:     fs,
		store:  st,
		report: report,
		scanner: &Scanner{
			FS:       fs,
			Pipeline: pipeline,
			Logger:   discardLogger(),
		},
	}
}

func (f *fixture) pipeline() *Pipeline {
	return f.scanner.Pipeline
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}
