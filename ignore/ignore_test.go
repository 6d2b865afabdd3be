package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Matcher_Substrings(t *testing.T) {
	matcher := NewMatcher(MatcherOptions{
		RootDir:    "/data",
		Substrings: []string{"/cache/", ".tmp"},
	})

	tests := []struct {
		path    string
		ignored bool
	}{
		{"/data/cache/a.bin", true},
		{"/data/photos/a.jpg", false},
		{"/data/photos/a.jpg.tmp", true},
		{"/data/cachedir/a.bin", false},
	}
	for _, tt := range tests {
		if got := matcher.ShouldIgnore(tt.path); got != tt.ignored {
			t.Errorf("ShouldIgnore(%s) = %v, want %v", tt.path, got, tt.ignored)
		}
	}
}

func Test_Matcher_EmptySubstringIgnored(t *testing.T) {
	// An empty substring would match every path.
	matcher := NewMatcher(MatcherOptions{RootDir: "/data", Substrings: []string{"", "  "}})

	if matcher.ShouldIgnore("/data/a.txt") {
		t.Error("expected empty substrings to be dropped")
	}
}

func Test_Matcher_DefaultDirs(t *testing.T) {
	matcher := NewMatcher(MatcherOptions{RootDir: "/data"})

	if !matcher.ShouldIgnoreDir("/data/project/.git") {
		t.Error("expected .git to be ignored")
	}
	if !matcher.ShouldIgnore("/data/project/.git/objects/ab/cdef") {
		t.Error("expected files under .git to be ignored")
	}
	if matcher.ShouldIgnoreDir("/data/project/src") {
		t.Error("expected src to NOT be ignored")
	}
}

func Test_Matcher_NoDefaults(t *testing.T) {
	matcher := NewMatcher(MatcherOptions{RootDir: "/data", NoDefaults: true})

	if matcher.ShouldIgnoreDir("/data/.git") {
		t.Error("expected .git to be processed when defaults are disabled")
	}
}

func Test_Matcher_ProtectedPaths(t *testing.T) {
	matcher := NewMatcher(MatcherOptions{
		RootDir:        "/data",
		ProtectedPaths: []string{"/data/filehashes.db"},
	})

	for _, path := range []string{"/data/filehashes.db", "/data/filehashes.db-wal", "/data/filehashes.db-journal", "/data/filehashes.db-shm"} {
		if !matcher.ShouldIgnore(path) {
			t.Errorf("expected %s to be ignored", path)
		}
	}
	for _, path := range []string{"/data/other.db", "/data/filehashes.db-photos/a.jpg", "/data/filehashes.db.bak"} {
		if matcher.ShouldIgnore(path) {
			t.Errorf("expected %s to NOT be ignored", path)
		}
	}
	if matcher.ShouldIgnoreDir("/data/filehashes.db-photos") {
		t.Error("expected sibling directory to NOT be ignored")
	}
}

func Test_Matcher_ProtectedIndexDirectory(t *testing.T) {
	matcher := NewMatcher(MatcherOptions{
		RootDir:        "/data",
		ProtectedPaths: []string{"/data/hashes.bleve"},
	})

	if !matcher.ShouldIgnoreDir("/data/hashes.bleve") {
		t.Error("expected index directory to be ignored")
	}
	if !matcher.ShouldIgnore("/data/hashes.bleve/store/root.bolt") {
		t.Error("expected index content to be ignored")
	}
	if matcher.ShouldIgnore("/data/hashes.bleve2/a.txt") {
		t.Error("expected unrelated directory to NOT be ignored")
	}
}

func Test_Matcher_GlobPatterns(t *testing.T) {
	matcher := NewMatcher(MatcherOptions{
		RootDir:  "/data",
		Patterns: []string{"**/*.part", "thumbs/**"},
	})

	if !matcher.ShouldIgnore("/data/downloads/movie.part") {
		t.Error("expected *.part to be ignored")
	}
	if !matcher.ShouldIgnore("/data/thumbs/a/b.png") {
		t.Error("expected thumbs/** to be ignored")
	}
	if matcher.ShouldIgnore("/data/photos/b.png") {
		t.Error("expected photos to NOT be ignored")
	}
}

func Test_Matcher_DupIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, FileName), []byte("*.bak\nscratch/\n"), 0644)

	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	if !matcher.ShouldIgnore(filepath.Join(tmpDir, "report.bak")) {
		t.Error("expected .dupignore pattern to ignore *.bak")
	}
	if !matcher.ShouldIgnoreDir(filepath.Join(tmpDir, "scratch")) {
		t.Error("expected .dupignore pattern to ignore scratch/")
	}
	if matcher.ShouldIgnore(filepath.Join(tmpDir, "report.txt")) {
		t.Error("expected report.txt to NOT be ignored")
	}
}

func Test_Matcher_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := NewMatcher(MatcherOptions{RootDir: tmpDir})

	target := filepath.Join(tmpDir, "notes.old")
	if matcher.ShouldIgnore(target) {
		t.Fatal("expected notes.old to be processed before reload")
	}

	os.WriteFile(filepath.Join(tmpDir, FileName), []byte("*.old\n"), 0644)
	matcher.Reload()

	if !matcher.ShouldIgnore(target) {
		t.Error("expected notes.old to be ignored after reload")
	}
}
