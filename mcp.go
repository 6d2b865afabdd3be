package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/server"
	"github.com/lexandro/dupwatch/store"
	"github.com/lexandro/dupwatch/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [path]",
	Short: "Serve duplicate queries over MCP (stdio)",
	Long: `Scan the working directory, keep following it with the file watcher and
answer MCP tool calls on stdin/stdout.

Logs go to --log-file or stderr; stdout carries the protocol only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, args, ".")
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.serveMCP(ctx, &mcp.StdioTransport{})
	a.deliver(context.WithoutCancel(ctx))
	if isCancellation(err) {
		return nil
	}
	return err
}

// serveMCP runs the initial scan, then answers tool calls on transport while
// the watcher keeps the store current. It returns when the client goes away,
// ctx ends, or StopAfterTest fires in the scan, the watcher or a rescan call.
func (a *app) serveMCP(ctx context.Context, transport mcp.Transport) error {
	startTime := time.Now()
	result, err := a.scanner.FullScan(ctx, a.rootDir)
	if errors.Is(err, dedup.ErrStopAfterTest) {
		a.logger.Info("stopping after test run", "root", a.rootDir)
	}
	if err != nil {
		return err
	}
	a.logger.Info("initial scan complete",
		"files", result.Files,
		"duplicates", result.Duplicates,
		"duration", time.Since(startTime),
	)

	enumerator, ok := a.store.(store.Enumerator)
	if !ok {
		return errors.New("store backend cannot enumerate records")
	}

	stopped := make(chan struct{})
	var stopOnce sync.Once
	rescan := func(ctx context.Context) (dedup.ScanResult, int, error) {
		result, pruned, err := a.rescan(ctx)
		if errors.Is(err, dedup.ErrStopAfterTest) {
			stopOnce.Do(func() { close(stopped) })
		}
		return result, pruned, err
	}

	handlers := server.Handlers{
		Duplicates: &tools.DuplicatesHandler{
			FS:       a.fs,
			Store:    a.store,
			Pipeline: a.pipeline,
			RootDir:  a.rootDir,
			Logger:   a.logger,
		},
		Files: &tools.FilesHandler{Records: enumerator, RootDir: a.rootDir, Logger: a.logger},
		Status: &tools.StatusHandler{
			Records:   enumerator,
			Report:    a.report,
			Action:    a.pipeline.Action(),
			Backend:   a.config.Store.Backend,
			StartTime: startTime,
			RootDir:   a.rootDir,
			Logger:    a.logger,
		},
		Check:  &tools.CheckHandler{Scanner: a.scanner, RootDir: a.rootDir, Logger: a.logger},
		Rescan: &tools.RescanHandler{DoRescan: rescan, Logger: a.logger},
	}
	mcpServer := server.Setup(handlers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.watch(ctx)
		switch {
		case err == nil, isCancellation(err):
			return nil
		case errors.Is(err, dedup.ErrStopAfterTest):
			a.logger.Info("stopping after test run", "root", a.rootDir)
			return err
		default:
			// The server keeps answering from the store without live updates.
			a.logger.Warn("file watcher stopped", "error", err)
			return nil
		}
	})
	g.Go(func() error {
		select {
		case <-stopped:
			a.logger.Info("stopping after test run", "root", a.rootDir)
			return dedup.ErrStopAfterTest
		case <-ctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		defer cancel()
		a.logger.Info("MCP server starting")
		return mcpServer.Run(ctx, transport)
	})
	return g.Wait()
}
