package discovery

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter narrows fixture files down by name
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName keeps fixtures whose file name matches pattern.
// Wildcard patterns ("*extremes*", "func_?_b.json") match the base name, with a
// fallback requiring every literal part to appear in order. A pattern without
// wildcards is a plain substring match.
func (f *Filter) FilterByName(fixtures []string, pattern string) []string {
	if pattern == "" {
		return fixtures
	}

	wildcard := strings.ContainsAny(pattern, "*?[")
	var filtered []string

	for _, fixture := range fixtures {
		name := filepath.Base(fixture)

		if !wildcard {
			if strings.Contains(name, pattern) {
				filtered = append(filtered, fixture)
			}
			continue
		}

		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			filtered = append(filtered, fixture)
			continue
		}
		if partsInOrder(name, pattern) {
			filtered = append(filtered, fixture)
		}
	}

	return filtered
}

// partsInOrder reports whether the literal pieces of a "*"-pattern all occur in
// name, left to right. Patterns made only of wildcards never match here.
func partsInOrder(name, pattern string) bool {
	rest := name
	found := false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
		found = true
	}
	return found
}
