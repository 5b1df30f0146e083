// Package pattern implements glob matching for exclusion and selection
// patterns. A `*` matches any run of characters within one path segment,
// `**` crosses directory boundaries, and `?` matches exactly one character.
// Matches are anchored: the pattern must cover the whole path.
//
// The underlying engine accepts a superset of that grammar: `[...]`
// character classes, `{a,b}` alternation, and `\` escapes are also glob
// syntax, so a pattern containing those characters literally must escape
// them. Profile file names in practice use none of them.
package pattern

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Matches reports whether path matches the glob pattern. An empty path or an
// empty pattern never matches, and a malformed pattern is treated as a
// non-match rather than an error.
func Matches(path, pattern string) bool {
	if path == "" || pattern == "" {
		return false
	}

	matched, err := doublestar.Match(pattern, path)
	if err != nil {
		return false
	}

	return matched
}

// MatchesAny reports whether path matches any of the given patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if Matches(path, p) {
			return true
		}
	}

	return false
}
