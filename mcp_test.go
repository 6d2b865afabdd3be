package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/dupwatch/config"
	"github.com/lexandro/dupwatch/dedup"
)

// serveInBackground starts serveMCP on an in-memory transport and returns the
// client side plus the channel carrying serveMCP's result.
func serveInBackground(t *testing.T, cfg *config.Config) (*mcp.InMemoryTransport, <-chan error) {
	t.Helper()
	a, err := newApp(context.Background(), cfg, testLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	done := make(chan error, 1)
	go func() { done <- a.serveMCP(context.Background(), serverTransport) }()
	return clientTransport, done
}

func waitServe(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("serveMCP did not return")
		return nil
	}
}

func connectClient(t *testing.T, transport mcp.Transport) *mcp.ClientSession {
	t.Helper()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(context.Background(), transport, nil)
	require.NoError(t, err)
	return session
}

func Test_app_ServeMCP_InitialScanStopAfterTest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "same", "b": "same"})

	_, done := serveInBackground(t, testConfig(t, root, "S"))

	assert.ErrorIs(t, waitServe(t, done), dedup.ErrStopAfterTest)
	assert.FileExists(t, filepath.Join(root, "a"))
	assert.FileExists(t, filepath.Join(root, "b"))
}

func Test_app_ServeMCP_RescanStopAfterTest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "unique"})

	clientTransport, done := serveInBackground(t, testConfig(t, root, "S"))
	session := connectClient(t, clientTransport)
	defer session.Close()

	writeTree(t, root, map[string]string{"b": "unique"})
	// The call may or may not get its answer before the server goes down.
	_, _ = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "dupwatch_rescan",
		Arguments: map[string]any{},
	})

	assert.ErrorIs(t, waitServe(t, done), dedup.ErrStopAfterTest)
	assert.FileExists(t, filepath.Join(root, "a"))
	assert.FileExists(t, filepath.Join(root, "b"))
}

func Test_app_ServeMCP_WatcherStopAfterTest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "unique"})
	cfg := testConfig(t, root, "S")
	cfg.DebounceInterval = 20 * time.Millisecond

	clientTransport, done := serveInBackground(t, cfg)
	session := connectClient(t, clientTransport)
	defer session.Close()

	// Give the watcher time to register the tree.
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "b"), []byte("unique"), 0644))

	assert.ErrorIs(t, waitServe(t, done), dedup.ErrStopAfterTest)
}

func Test_app_ServeMCP_ClientDisconnect(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "one", "b": "two"})

	clientTransport, done := serveInBackground(t, testConfig(t, root, "S"))
	session := connectClient(t, clientTransport)
	require.NoError(t, session.Close())

	// Closing the session ends the server; only the transport's own error may surface.
	assert.NotErrorIs(t, waitServe(t, done), dedup.ErrStopAfterTest)
}
