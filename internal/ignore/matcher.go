package ignore

import "strings"

// PatternSet is an ordered, read-only collection of ignore patterns.
type PatternSet struct {
	patterns []string
}

// NewPatternSet builds a set from raw patterns, dropping empty entries.
func NewPatternSet(patterns []string) PatternSet {
	retained := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if len(pattern) == 0 {
			continue
		}
		retained = append(retained, pattern)
	}
	return PatternSet{patterns: retained}
}

// Patterns returns a copy of the patterns in load order.
func (set PatternSet) Patterns() []string {
	return append([]string{}, set.patterns...)
}

// Len reports the number of patterns.
func (set PatternSet) Len() int {
	return len(set.patterns)
}

// Matches reports whether any pattern is a substring of path.
func (set PatternSet) Matches(path string) bool {
	return Matches(path, set)
}

// Matches reports whether any pattern in patterns occurs in path as written.
// The path is not cleaned or resolved first.
func Matches(path string, patterns PatternSet) bool {
	for _, pattern := range patterns.patterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
