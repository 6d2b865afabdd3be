package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/metrics"
	"github.com/lexandro/dupwatch/watcher"
)

// runScan is the root command: full scan, optional watch mode, report flush.
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, args, "")
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.run(ctx)
	// Delivery must survive an interrupted run.
	a.deliver(context.WithoutCancel(ctx))
	if isCancellation(err) {
		logger.Info("interrupted")
		return nil
	}
	return err
}

// run executes the initial scan and, when configured, the watch loop.
// The metrics endpoint lives as long as either.
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if a.config.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, a.config.MetricsAddr, a.logger)
		})
	}
	g.Go(func() error {
		defer cancel()

		result, err := a.scanner.FullScan(ctx, a.rootDir)
		if errors.Is(err, dedup.ErrStopAfterTest) {
			a.logger.Info("stopping after test run", "root", a.rootDir)
		}
		if err != nil {
			return err
		}
		printSummary(a.out, result, a.report)

		if !a.config.Watchdog {
			return nil
		}
		a.deliver(ctx)
		return a.watch(ctx)
	})
	return g.Wait()
}

// watch follows filesystem changes until ctx ends or StopAfterTest fires.
func (a *app) watch(ctx context.Context) error {
	w, err := watcher.NewWatcher(watcher.Options{
		RootDir:  a.rootDir,
		Ignore:   a.matcher,
		Debounce: a.config.DebounceInterval,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	a.logger.Info("watching for changes", "root", a.rootDir, "debounce", a.config.DebounceInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Run(ctx); err != nil && !isCancellation(err) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.scanner.HandleEvents(ctx, w.Events())
	})
	if a.config.ResyncEvery > 0 {
		g.Go(func() error {
			return runPeriodicResync(ctx, a.config.ResyncEvery, a.resyncAndDeliver, a.logger)
		})
	}
	return g.Wait()
}

func (a *app) resyncAndDeliver(ctx context.Context) (dedup.ScanResult, int, error) {
	result, pruned, err := a.rescan(ctx)
	if err == nil {
		a.deliver(ctx)
	}
	return result, pruned, err
}

// serveMetrics exposes /metrics until ctx ends.
func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
