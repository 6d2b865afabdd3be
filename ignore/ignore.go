// Package ignore decides which paths the duplicate scanner skips.
package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Matcher determines whether a path is excluded from duplicate detection.
// It combines the configured substrings, glob patterns, the .dupignore file,
// version-control directories and paths that belong to the tool itself.
// Thread-safe: Reload() acquires a write lock, the Should* methods a read lock.
type Matcher struct {
	mu             sync.RWMutex
	rootDir        string
	substrings     []string
	patterns       []string
	protectedPaths []string
	noDefaults     bool
	dupIgnore      gitignore.GitIgnore
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir string
	// Substrings excludes any path containing one of the strings (ignore_paths).
	Substrings []string
	// Patterns are doublestar globs matched against the root-relative path and the basename.
	Patterns []string
	// ProtectedPaths are excluded together with their contents (bleve index
	// directories) and the -wal, -journal and -shm siblings of a database file.
	ProtectedPaths []string
	// NoDefaults disables DefaultIgnoreDirs.
	NoDefaults bool
}

// NewMatcher creates a matcher and loads <RootDir>/.dupignore when present.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:    options.RootDir,
		substrings: nonEmpty(options.Substrings),
		patterns:   nonEmpty(options.Patterns),
		noDefaults: options.NoDefaults,
	}
	for _, p := range nonEmpty(options.ProtectedPaths) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		matcher.protectedPaths = append(matcher.protectedPaths, p)
	}

	if options.RootDir != "" {
		matcher.dupIgnore = loadIgnoreFile(filepath.Join(options.RootDir, FileName), options.RootDir)
	}
	return matcher
}

// ShouldIgnore returns true if the file at absolutePath must not be processed.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	return m.shouldIgnore(absolutePath, false)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if !m.noDefaults {
		dirName := filepath.Base(absolutePath)
		for _, name := range DefaultIgnoreDirs {
			if dirName == name {
				return true
			}
		}
	}
	return m.shouldIgnore(absolutePath, true)
}

func (m *Matcher) shouldIgnore(absolutePath string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.substrings {
		if strings.Contains(absolutePath, s) {
			return true
		}
	}

	for _, p := range m.protectedPaths {
		if isProtected(absolutePath, p) {
			return true
		}
	}

	if !m.noDefaults && m.insideDefaultDir(absolutePath) {
		return true
	}

	relativePath := m.relative(absolutePath)

	if m.dupIgnore != nil && relativePath != "" && !strings.HasPrefix(relativePath, "..") {
		match := m.dupIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesPatterns(relativePath, absolutePath)
}

// insideDefaultDir catches files reported by the watcher whose parent is a VCS directory.
func (m *Matcher) insideDefaultDir(absolutePath string) bool {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(absolutePath)), "/")
	for _, part := range parts {
		for _, name := range DefaultIgnoreDirs {
			if part == name {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) relative(absolutePath string) string {
	if m.rootDir == "" {
		return filepath.ToSlash(absolutePath)
	}
	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		return filepath.ToSlash(absolutePath)
	}
	return filepath.ToSlash(relativePath)
}

// matchesPatterns checks the configured globs against the relative path and the basename.
func (m *Matcher) matchesPatterns(relativePath string, absolutePath string) bool {
	baseName := filepath.Base(absolutePath)
	for _, pattern := range m.patterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// IgnoreFile returns the path of the .dupignore file the matcher reads,
// or "" when the matcher has no root.
func (m *Matcher) IgnoreFile() string {
	if m.rootDir == "" {
		return ""
	}
	return filepath.Join(m.rootDir, FileName)
}

// Reload re-reads the .dupignore file from disk.
// Used when the watcher reports a change to it.
func (m *Matcher) Reload() {
	if m.rootDir == "" {
		return
	}
	newIgnore := loadIgnoreFile(m.IgnoreFile(), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dupIgnore = newIgnore
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses the io.Reader form so the handle is closed promptly on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}

// protectedSuffixes are the files sqlite keeps next to its database.
var protectedSuffixes = []string{"-wal", "-journal", "-shm"}

func isProtected(absolutePath, protected string) bool {
	if absolutePath == protected || strings.HasPrefix(absolutePath, protected+string(filepath.Separator)) {
		return true
	}
	for _, suffix := range protectedSuffixes {
		if absolutePath == protected+suffix {
			return true
		}
	}
	return false
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
