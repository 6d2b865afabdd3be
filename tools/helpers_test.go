package tools

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/store"
)

// sha512Hex is the expected stored hash for content.
func sha512Hex(content string) string {
	sum := sha512.Sum512([]byte(content))
	return hex.EncodeToString(sum[:])
}

type testEnv struct {
	fs       *fsys.Afero
	store    *store.Memory
	pipeline *dedup.Pipeline
	scanner  *dedup.Scanner
	logger   *slog.Logger
}

// newTestEnv builds a pipeline over an in-memory filesystem and store,
// then scans /project once.
func newTestEnv(t *testing.T, files map[string]string, preferences ...string) *testEnv {
	t.Helper()
	memFs := afero.NewMemMapFs()
	mtime := time.Unix(1700000000, 0)
	for path, content := range files {
		if err := afero.WriteFile(memFs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		if err := memFs.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("failed to set mtime on %s: %v", path, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fs := fsys.New(memFs)
	st := store.NewMemory()
	pipeline := dedup.NewPipeline(dedup.PipelineOptions{
		FS:          fs,
		Store:       st,
		Preferences: preferences,
		Action:      dedup.ReportOnly,
		Logger:      logger,
	})
	env := &testEnv{
		fs:       fs,
		store:    st,
		pipeline: pipeline,
		scanner:  &dedup.Scanner{FS: fs, Pipeline: pipeline, Logger: logger},
		logger:   logger,
	}
	if len(files) > 0 {
		if _, err := env.scanner.FullScan(context.Background(), "/project"); err != nil {
			t.Fatalf("initial scan failed: %v", err)
		}
	}
	return env
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}

func writeFile(env *testEnv, path, content string) error {
	return afero.WriteFile(env.fs.Fs(), path, []byte(content), 0644)
}
