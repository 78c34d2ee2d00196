// Package pattern implements glob-style matching of page source paths
// against registration patterns.
package pattern

import "github.com/bmatcuk/doublestar/v4"

// All matches every page regardless of source path.
const All = "**/*"

// Match reports whether src matches the glob pattern. Patterns support `*`
// within a path segment, `**` across segments, and literal paths. Matching is
// pure: no state, no side effects.
func Match(pattern, src string) bool {
	if pattern == "" || pattern == All {
		return true
	}
	ok, err := doublestar.Match(pattern, src)
	if err != nil {
		// Malformed pattern matches nothing.
		return false
	}
	return ok
}

// Valid reports whether pattern is a well-formed glob.
func Valid(pattern string) bool {
	return doublestar.ValidatePattern(pattern)
}
