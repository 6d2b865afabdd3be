package dedup

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/metrics"
	"github.com/lexandro/dupwatch/store"
)

// Action is what happens to a duplicate set once it is ranked.
type Action int

const (
	// ReportOnly lists every pair of identical files. Default.
	ReportOnly Action = iota
	// TestOnly lists which files would be deleted and which kept.
	TestOnly
	// StopAfterTest behaves like TestOnly, then halts the run.
	StopAfterTest
	// Delete removes every file but the highest-ranked one.
	Delete
)

// ParseAction maps the configuration letters D, T and S; anything else is ReportOnly.
func ParseAction(s string) Action {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D":
		return Delete
	case "T":
		return TestOnly
	case "S":
		return StopAfterTest
	default:
		return ReportOnly
	}
}

func (a Action) String() string {
	switch a {
	case Delete:
		return "delete"
	case TestOnly:
		return "test"
	case StopAfterTest:
		return "stop-after-test"
	default:
		return "report"
	}
}

// Executor applies an Action to a ranked duplicate set.
type Executor struct {
	FS     fsys.Filesystem
	Store  store.Store
	Logger *slog.Logger
}

// Execute runs action over ranked (most disposable first, kept path last).
// set is the unranked duplicate set, used by ReportOnly to compare hash and size.
// Delete failures are joined *DeletionFailedError values; StopAfterTest returns ErrStopAfterTest.
func (e *Executor) Execute(ctx context.Context, action Action, set []store.FileRecord, ranked []string, report *Report) error {
	switch action {
	case Delete:
		return e.Delete(ctx, ranked, report)
	case TestOnly:
		e.Test(ranked, report)
		return nil
	case StopAfterTest:
		if e.Test(ranked, report) {
			return ErrStopAfterTest
		}
		return nil
	default:
		e.ReportPairs(set, report)
		return nil
	}
}

// Disposable splits ranked into the paths to remove and the path to keep.
// Repeated paths are collapsed; the original last element is always the one kept,
// so it never appears in remove.
func Disposable(ranked []string) (remove []string, keep string) {
	if len(ranked) == 0 {
		return nil, ""
	}
	keep = ranked[len(ranked)-1]

	seen := map[string]bool{keep: true}
	for _, path := range ranked[:len(ranked)-1] {
		if seen[path] {
			continue
		}
		seen[path] = true
		remove = append(remove, path)
	}
	return remove, keep
}

// Delete removes every disposable path from disk and then from the store.
// Each path is independent: a failure is recorded and the batch continues.
func (e *Executor) Delete(ctx context.Context, ranked []string, report *Report) error {
	remove, keep := Disposable(ranked)
	if len(remove) == 0 {
		return nil
	}

	var errs []error
	for _, path := range remove {
		if err := e.FS.Remove(path); err != nil {
			e.Logger.Error("failed to delete duplicate", "path", path, "error", err)
			report.Add(KindFailed, "failed to delete %s: %v", path, err)
			errs = append(errs, &DeletionFailedError{Path: path, Err: err})
			continue
		}
		if err := e.Store.DeleteByPath(ctx, path); err != nil {
			e.Logger.Error("deleted duplicate but failed to drop its record", "path", path, "error", err)
			report.Add(KindFailed, "deleted %s but could not drop its record: %v", path, err)
			errs = append(errs, &DeletionFailedError{Path: path, Err: err})
			continue
		}
		metrics.RecordRemoved()
		e.Logger.Info("deleted duplicate", "path", path, "kept", keep)
		report.Add(KindRemoved, "deleted: %s", path)
	}
	report.Add(KindKept, "kept: %s", keep)

	return errors.Join(errs...)
}

// Test reports what Delete would do without touching disk or store.
// Returns false when there is nothing to remove.
func (e *Executor) Test(ranked []string, report *Report) bool {
	remove, keep := Disposable(ranked)
	if len(remove) == 0 {
		return false
	}
	for _, path := range remove {
		report.Add(KindWouldRemove, "would delete: %s", path)
	}
	report.Add(KindWouldKeep, "would keep: %s", keep)
	return true
}

// ReportPairs emits one line for every pair of distinct paths with equal hash and size.
func (e *Executor) ReportPairs(set []store.FileRecord, report *Report) {
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			a, b := set[i], set[j]
			if a.Path == b.Path || !a.SameContent(b) {
				continue
			}
			report.Add(KindDuplicate, "duplicate: %s == %s", a.Path, b.Path)
		}
	}
}
