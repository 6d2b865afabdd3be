package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Memory is an in-memory Store. Records are kept in a path map plus a hash
// index, with a sorted path slice for deterministic iteration and glob search.
type Memory struct {
	mu          sync.RWMutex
	records     map[string]FileRecord          // key: canonical path
	byHash      map[string]map[string]struct{} // key: hash, value: set of paths
	sortedPaths []string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records:     make(map[string]FileRecord),
		byHash:      make(map[string]map[string]struct{}),
		sortedPaths: make([]string, 0),
	}
}

func (m *Memory) CreateSchema(ctx context.Context) error { return nil }

func (m *Memory) FindByHash(ctx context.Context, hash string) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := m.byHash[hash]
	result := make([]FileRecord, 0, len(paths))
	for path := range paths {
		result = append(result, m.records[path])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (m *Memory) FindByPath(ctx context.Context, path string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[path]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *Memory) DeleteByPath(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.records[path]
	if !exists {
		return nil
	}

	delete(m.records, path)
	if paths := m.byHash[record.Hash]; paths != nil {
		delete(paths, path)
		if len(paths) == 0 {
			delete(m.byHash, record.Hash)
		}
	}

	idx := sort.SearchStrings(m.sortedPaths, path)
	if idx < len(m.sortedPaths) && m.sortedPaths[idx] == path {
		m.sortedPaths = append(m.sortedPaths[:idx], m.sortedPaths[idx+1:]...)
	}
	return nil
}

func (m *Memory) Insert(ctx context.Context, record FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.Path]; exists {
		return &Error{Op: "insert", Path: record.Path, Err: ErrDuplicatePath}
	}

	m.records[record.Path] = record
	if m.byHash[record.Hash] == nil {
		m.byHash[record.Hash] = make(map[string]struct{})
	}
	m.byHash[record.Hash][record.Path] = struct{}{}

	idx := sort.SearchStrings(m.sortedPaths, record.Path)
	m.sortedPaths = append(m.sortedPaths, "")
	copy(m.sortedPaths[idx+1:], m.sortedPaths[idx:])
	m.sortedPaths[idx] = record.Path
	return nil
}

func (m *Memory) Close() error { return nil }

// AllRecords returns every record in path order.
func (m *Memory) AllRecords(ctx context.Context) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]FileRecord, 0, len(m.sortedPaths))
	for _, path := range m.sortedPaths {
		result = append(result, m.records[path])
	}
	return result, nil
}

// Count returns the number of records.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// SearchByGlob returns records whose path matches a doublestar pattern.
func (m *Memory) SearchByGlob(pattern string, maxResults int) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return searchByGlob(m.sortedPaths, func(p string) FileRecord { return m.records[p] }, pattern, maxResults)
}

// MatchGlob filters records by a doublestar pattern against their path.
// Records must be sorted by path for stable output.
func MatchGlob(records []FileRecord, pattern string, maxResults int) ([]FileRecord, error) {
	byPath := make(map[string]FileRecord, len(records))
	paths := make([]string, 0, len(records))
	for _, r := range records {
		byPath[r.Path] = r
		paths = append(paths, r.Path)
	}
	return searchByGlob(paths, func(p string) FileRecord { return byPath[p] }, pattern, maxResults)
}

func searchByGlob(paths []string, lookup func(string) FileRecord, pattern string, maxResults int) ([]FileRecord, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []FileRecord
	for _, path := range paths {
		if len(results) >= maxResults {
			break
		}
		matched, err := doublestar.Match(pattern, strings.ReplaceAll(path, "\\", "/"))
		if err != nil || !matched {
			continue
		}
		results = append(results, lookup(path))
	}
	return results, nil
}
