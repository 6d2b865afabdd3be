package dedup

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// EntryKind classifies a report line.
type EntryKind int

const (
	KindInfo EntryKind = iota
	KindDuplicate
	KindWouldRemove
	KindWouldKeep
	KindRemoved
	KindKept
	KindChanged
	KindSkipped
	KindFailed
)

// Entry is one human-readable report line.
type Entry struct {
	Kind EntryKind
	Text string
}

// Report accumulates the human-readable outcome of a run. It is passed to
// every action-executing call and flushed by the caller (stdout, e-mail).
type Report struct {
	mu      sync.Mutex
	runID   string
	entries []Entry
	onEntry func(Entry)
}

// NewReport creates an empty report. onEntry, when set, sees every line as it is added.
func NewReport(onEntry func(Entry)) *Report {
	return &Report{
		runID:   uuid.NewString(),
		onEntry: onEntry,
	}
}

// RunID identifies the run this report belongs to.
func (r *Report) RunID() string {
	return r.runID
}

// Add appends a formatted line.
func (r *Report) Add(kind EntryKind, format string, args ...any) {
	if r == nil {
		return
	}
	entry := Entry{Kind: kind, Text: fmt.Sprintf(format, args...)}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	onEntry := r.onEntry
	r.mu.Unlock()

	if onEntry != nil {
		onEntry(entry)
	}
}

// Entries returns a copy of all lines so far.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Count returns the number of lines of the given kind.
func (r *Report) Count(kind EntryKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of lines.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Dump joins all lines with newlines.
func (r *Report) Dump() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, len(r.entries))
	for i, e := range r.entries {
		lines[i] = e.Text
	}
	return strings.Join(lines, "\n")
}

// Reset drops all lines, keeping the run id. Used between watch-mode flushes.
func (r *Report) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
