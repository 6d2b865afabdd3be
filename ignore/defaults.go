package ignore

// FileName is the per-tree ignore file, read from the working directory root.
// It uses gitignore syntax.
const FileName = ".dupignore"

// DefaultIgnoreDirs are version-control directories skipped unless
// MatcherOptions.NoDefaults is set. Their content is managed by other tools
// and must never be deduplicated.
var DefaultIgnoreDirs = []string{
	".git",
	".svn",
	".hg",
	".bzr",
}
