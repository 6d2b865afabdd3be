package dedup

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/metrics"
	"github.com/lexandro/dupwatch/store"
)

// IgnoreChecker decides which canonical paths are excluded.
type IgnoreChecker interface {
	ShouldIgnore(absolutePath string) bool
	ShouldIgnoreDir(absolutePath string) bool
}

// Scanner feeds paths from a directory walk or change events into a Pipeline.
type Scanner struct {
	FS       fsys.Filesystem
	Pipeline *Pipeline
	Ignore   IgnoreChecker // nil ignores nothing
	Logger   *slog.Logger
}

// ScanResult summarises one full scan.
type ScanResult struct {
	Files      int // files run through the pipeline
	Ignored    int
	Skipped    int // files that failed and were left out
	Duplicates int // files that belonged to a duplicate set when processed
	Duration   time.Duration
}

// FullScan walks root and runs the pipeline for every non-ignored file.
// Per-file failures are logged, reported and skipped. The walk aborts on
// context cancellation and on ErrStopAfterTest.
func (s *Scanner) FullScan(ctx context.Context, root string) (ScanResult, error) {
	var result ScanResult
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		metrics.RecordScanDuration(result.Duration)
	}()

	canonicalRoot, err := s.FS.Canonicalize(root)
	if err != nil {
		return result, err
	}
	s.Logger.Info("scanning", "root", canonicalRoot, "action", s.Pipeline.Action().String())

	err = s.FS.Walk(canonicalRoot, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			s.Logger.Warn("walk error", "path", path, "error", walkErr)
			result.Skipped++
			metrics.RecordSkipped("io")
			return nil
		}
		if info.IsDir() {
			if path != canonicalRoot && s.Ignore != nil && s.Ignore.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		outcome, err := s.processPath(ctx, path)
		switch {
		case errors.Is(err, errIgnored):
			result.Ignored++
			return nil
		case errors.Is(err, ErrStopAfterTest), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil && !IsDeletionFailed(err):
			result.Skipped++
			return nil
		}
		if outcome == nil {
			return nil
		}
		result.Files++
		if len(outcome.Duplicates) > 1 {
			result.Duplicates++
		}
		return nil
	})

	s.Logger.Info("scan finished",
		"root", canonicalRoot,
		"files", result.Files,
		"duplicates", result.Duplicates,
		"ignored", result.Ignored,
		"skipped", result.Skipped)
	return result, err
}

// Check runs one file through the pipeline without acting on its duplicates.
func (s *Scanner) Check(ctx context.Context, path string) (*Outcome, error) {
	canonical, err := s.FS.Canonicalize(path)
	if err != nil {
		return nil, err
	}
	if s.Ignore != nil && s.Ignore.ShouldIgnore(canonical) {
		return nil, nil
	}
	return s.Pipeline.Check(ctx, canonical)
}

var errIgnored = errors.New("ignored")

// processPath canonicalises path, applies the ignore filter and runs the
// pipeline. Errors other than stop and cancellation are already logged and
// reported when returned.
func (s *Scanner) processPath(ctx context.Context, path string) (*Outcome, error) {
	report := s.Pipeline.Report()

	canonical, err := s.FS.Canonicalize(path)
	if err != nil {
		s.Logger.Warn("cannot resolve path", "path", path, "error", err)
		report.Add(KindSkipped, "skipped %s: %v", path, err)
		metrics.RecordSkipped("path")
		return nil, err
	}
	if s.Ignore != nil && s.Ignore.ShouldIgnore(canonical) {
		s.Logger.Debug("ignored", "path", canonical)
		return nil, errIgnored
	}

	outcome, err := s.Pipeline.Process(ctx, canonical)
	if err == nil || errors.Is(err, ErrStopAfterTest) || ctx.Err() != nil {
		return outcome, err
	}

	if IsDeletionFailed(err) {
		// Already reported line by line by the executor.
		return outcome, err
	}
	s.Logger.Error("failed to process file", "path", canonical, "error", err)
	report.Add(KindFailed, "failed to process %s: %v", canonical, err)
	switch {
	case fsys.IsIOError(err):
		metrics.RecordSkipped("io")
	case store.IsStoreError(err):
		metrics.RecordSkipped("store")
	}
	return outcome, err
}
