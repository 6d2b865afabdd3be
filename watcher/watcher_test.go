package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type suffixIgnore struct{ suffix string }

func (s suffixIgnore) ShouldIgnoreDir(path string) bool { return false }
func (s suffixIgnore) ShouldIgnore(path string) bool    { return strings.HasSuffix(path, s.suffix) }

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := NewWatcher(Options{
		RootDir:  root,
		Ignore:   suffixIgnore{".ignored"},
		Debounce: 50 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func Test_TranslateOp(t *testing.T) {
	tests := []struct {
		in   fsnotify.Op
		want EventOp
	}{
		{fsnotify.Create, OpCreate},
		{fsnotify.Write, OpWrite},
		{fsnotify.Remove, OpRemove},
		{fsnotify.Rename, OpRename},
		{fsnotify.Chmod, OpChmod},
	}
	for _, tt := range tests {
		got, ok := translateOp(tt.in)
		if !ok || got != tt.want {
			t.Errorf("translateOp(%s) = %s, %v; want %s", tt.in, got, ok, tt.want)
		}
	}
}

func Test_Watcher_HandleEvent_IgnoredPath(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())

	w.handleEvent(fsnotify.Event{Name: "/x/file.ignored", Op: fsnotify.Write})

	select {
	case batch := <-w.Events():
		t.Fatalf("expected no events, got %v", batch)
	case <-time.After(200 * time.Millisecond):
	}
}

func Test_Watcher_DeliversCreatedFile(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	target := filepath.Join(root, "new.txt")
	if err := os.WriteFile(target, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-w.Events():
			for _, event := range batch {
				if event.Path == target && (event.Op == OpCreate || event.Op == OpWrite) {
					return
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for create event")
		}
	}
}

func Test_Watcher_RunReturnsOnCancel(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
