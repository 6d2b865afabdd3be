package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lexandro/dupwatch/fsys"
	"github.com/lexandro/dupwatch/metrics"
	"github.com/lexandro/dupwatch/store"
)

// PipelineOptions wires a Pipeline.
type PipelineOptions struct {
	FS          fsys.Filesystem
	Store       store.Store
	Preferences []string // delete_score: later entries are kept in preference
	Action      Action
	Report      *Report
	Logger      *slog.Logger
}

// Pipeline runs the per-file duplicate logic. Calls are serialised, so the
// store and the ranking never see two files at once whatever the entry point.
type Pipeline struct {
	reconciler  *Reconciler
	resolver    *Resolver
	executor    *Executor
	store       store.Store
	preferences []string
	action      Action
	report      *Report
	logger      *slog.Logger

	mu sync.Mutex
}

// NewPipeline creates a pipeline over the given capabilities.
func NewPipeline(options PipelineOptions) *Pipeline {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := options.Report
	if report == nil {
		report = NewReport(nil)
	}

	return &Pipeline{
		reconciler:  &Reconciler{FS: options.FS, Store: options.Store, Logger: logger},
		resolver:    &Resolver{FS: options.FS, Store: options.Store, Logger: logger},
		executor:    &Executor{FS: options.FS, Store: options.Store, Logger: logger},
		store:       options.Store,
		preferences: options.Preferences,
		action:      options.Action,
		report:      report,
		logger:      logger,
	}
}

// Report returns the report sink every action writes to.
func (p *Pipeline) Report() *Report {
	return p.report
}

// Action returns the configured action.
func (p *Pipeline) Action() Action {
	return p.action
}

// Outcome describes what happened to one file.
type Outcome struct {
	Record     store.FileRecord
	Computed   bool               // content was hashed
	Inserted   bool               // a new record was written
	Changed    bool               // the stored hash differed and was replaced
	Duplicates []store.FileRecord // surviving files sharing the hash (includes Record)
	Ranking    []Ranked           // set only when len(Duplicates) > 1
}

// Process runs the full pipeline for one canonical path, including the
// configured action. Directories return (nil, nil).
func (p *Pipeline) Process(ctx context.Context, path string) (*Outcome, error) {
	return p.run(ctx, path, true)
}

// Check records the file and resolves its duplicates but performs no action.
func (p *Pipeline) Check(ctx context.Context, path string) (*Outcome, error) {
	return p.run(ctx, path, false)
}

// Duplicates resolves the live duplicate set for a hash and ranks it, without
// reading or recording any file.
func (p *Pipeline) Duplicates(ctx context.Context, hash string) ([]store.FileRecord, []Ranked, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, err := p.resolver.Resolve(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	return set, p.rank(set), nil
}

// PruneStale drops records for files that no longer exist. The store must
// implement store.Enumerator; otherwise it is a no-op.
func (p *Pipeline) PruneStale(ctx context.Context) (int, error) {
	enumerator, ok := p.store.(store.Enumerator)
	if !ok {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolver.PruneStale(ctx, enumerator)
}

func (p *Pipeline) run(ctx context.Context, path string, act bool) (*Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reconciled, err := p.reconciler.Reconcile(ctx, path)
	if err != nil {
		return nil, err
	}
	if reconciled == nil {
		return nil, nil
	}
	metrics.RecordFileProcessed()

	outcome := &Outcome{Record: reconciled.Record, Computed: reconciled.Computed}
	previous := reconciled.Previous

	if previous != nil && (previous.Hash != outcome.Record.Hash || previous.LastModified < outcome.Record.LastModified) {
		if previous.Hash != outcome.Record.Hash {
			outcome.Changed = true
			p.logger.Info("hash changed", "path", path)
			p.report.Add(KindChanged, "hash changed for file: %s", path)
		}
		if err := p.store.DeleteByPath(ctx, path); err != nil {
			return nil, fmt.Errorf("invalidating record: %w", err)
		}
		previous = nil
	}

	if previous == nil {
		if err := p.store.Insert(ctx, outcome.Record); err != nil {
			return nil, fmt.Errorf("recording file: %w", err)
		}
		outcome.Inserted = true
	}

	outcome.Duplicates, err = p.resolver.Resolve(ctx, outcome.Record.Hash)
	if err != nil {
		return nil, fmt.Errorf("resolving duplicates: %w", err)
	}
	if len(outcome.Duplicates) < 2 {
		return outcome, nil
	}

	outcome.Ranking = p.rank(outcome.Duplicates)
	metrics.RecordDuplicateSet()
	if !act {
		return outcome, nil
	}

	return outcome, p.executor.Execute(ctx, p.action, outcome.Duplicates, Paths(outcome.Ranking), p.report)
}

func (p *Pipeline) rank(set []store.FileRecord) []Ranked {
	paths := make([]string, len(set))
	for i, record := range set {
		paths[i] = record.Path
	}
	return Rank(paths, p.preferences)
}
