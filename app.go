package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/lexandro/dupwatch/config"
	"github.com/lexandro/dupwatch/dedup"
	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/ignore"
	"github.com/lexandro/dupwatch/notify"
	"github.com/lexandro/dupwatch/store"
)

// app holds everything a command needs, wired from one Config.
type app struct {
	config   *config.Config
	logger   *slog.Logger
	rootDir  string
	fs       *fsys.Afero
	store    store.Store
	matcher  *ignore.Matcher
	pipeline *dedup.Pipeline
	scanner  *dedup.Scanner
	report   *dedup.Report
	mailer   *notify.Mailer
	out      io.Writer // report echo and summaries
}

// newApp opens the store, creates its schema and wires the pipeline.
// Report lines are echoed to echo as they happen; nil keeps them silent.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, echo io.Writer) (*app, error) {
	fs := fsys.NewOS()
	rootDir, err := fs.Canonicalize(cfg.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	st, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	if err := st.CreateSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	matcher := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:        rootDir,
		Substrings:     cfg.IgnorePaths,
		Patterns:       cfg.IgnorePatterns,
		ProtectedPaths: protectedPaths(fs, cfg),
	})

	var onEntry func(dedup.Entry)
	if echo != nil {
		onEntry = newReportPrinter(echo).Print
	}
	report := dedup.NewReport(onEntry)

	pipeline := dedup.NewPipeline(dedup.PipelineOptions{
		FS:          fs,
		Store:       st,
		Preferences: cfg.DeleteScore,
		Action:      dedup.ParseAction(cfg.Action),
		Report:      report,
		Logger:      logger,
	})

	out := echo
	if out == nil {
		out = io.Discard
	}

	a := &app{
		out:      out,
		config:   cfg,
		logger:   logger,
		rootDir:  rootDir,
		fs:       fs,
		store:    st,
		matcher:  matcher,
		pipeline: pipeline,
		scanner:  &dedup.Scanner{FS: fs, Pipeline: pipeline, Ignore: matcher, Logger: logger},
		report:   report,
	}

	if cfg.Email.Enabled() {
		a.mailer, err = notify.NewMailer(notify.Options{
			To:       cfg.Email.To,
			From:     cfg.Email.From,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			Hostname: cfg.Email.Hostname,
			Port:     cfg.Email.Port,
			Logger:   logger,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("email: %w", err)
		}
	}

	logger.Info("dupwatch ready",
		"root", rootDir,
		"backend", cfg.Store.Backend,
		"action", pipeline.Action().String(),
		"runID", report.RunID(),
	)
	return a, nil
}

// protectedPaths lists the store's own files so a scan never fingerprints or deletes them.
func protectedPaths(fs fsys.Filesystem, cfg *config.Config) []string {
	if cfg.Store.Path == "" {
		return nil
	}
	switch cfg.Store.Backend {
	case store.BackendSQLite, store.BackendBleve:
	default:
		return nil
	}

	if canonical, err := fs.Canonicalize(cfg.Store.Path); err == nil {
		return []string{canonical}
	}
	abs, err := filepath.Abs(cfg.Store.Path)
	if err != nil {
		return []string{cfg.Store.Path}
	}
	return []string{abs}
}

// deliver mails the accumulated report, if configured, and starts a fresh one.
func (a *app) deliver(ctx context.Context) {
	if a.mailer == nil || a.report.Len() == 0 {
		return
	}
	subject := fmt.Sprintf("dupwatch report for %s (%s)", a.rootDir, a.report.RunID())
	if err := a.mailer.Send(ctx, subject, a.report.Dump()); err != nil {
		a.logger.Error("failed to mail report", "error", err)
		return
	}
	a.report.Reset()
}

// rescan runs a full scan and then prunes records of files that vanished.
func (a *app) rescan(ctx context.Context) (dedup.ScanResult, int, error) {
	a.matcher.Reload()
	result, err := a.scanner.FullScan(ctx, a.rootDir)
	if err != nil {
		return result, 0, err
	}
	pruned, err := a.pipeline.PruneStale(ctx)
	if err != nil {
		return result, pruned, fmt.Errorf("pruning stale records: %w", err)
	}
	return result, pruned, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// isCancellation reports whether err only says the run was interrupted.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
