package dedup

import (
	"sort"
	"strings"
)

// Ranked is a path with its retention score.
type Ranked struct {
	Path  string
	Score int
}

// Score sums the weights of every preference substring contained in path.
// The preference at position i weighs i+1, so later entries dominate.
// Empty preferences are ignored.
func Score(path string, preferences []string) int {
	score := 0
	for i, preference := range preferences {
		if preference == "" {
			continue
		}
		if strings.Contains(path, preference) {
			score += i + 1
		}
	}
	return score
}

// Rank orders paths from most disposable to most worth keeping: ascending
// score, ties kept in their input order. The last element is the one to keep.
func Rank(paths []string, preferences []string) []Ranked {
	ranked := make([]Ranked, len(paths))
	for i, path := range paths {
		ranked[i] = Ranked{Path: path, Score: Score(path, preferences)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	return ranked
}

// Paths extracts the ordered paths from a ranking.
func Paths(ranked []Ranked) []string {
	paths := make([]string, len(ranked))
	for i, r := range ranked {
		paths[i] = r.Path
	}
	return paths
}
