package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Scanner finds fixture files
type Scanner struct {
	skipDirs   map[string]bool
	extensions map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip and the
// fixture extensions to accept
func NewScanner(skipDirs []string, extensions []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.ToLower(ext)] = true
	}
	return &Scanner{skipDirs: skipMap, extensions: extMap}
}

// Scan finds all fixture files under root. A root that is itself a file is
// returned as the only fixture.
func (s *Scanner) Scan(root string) ([]string, error) {
	var fixtures []string

	// Clean and validate the root path
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("fixture path does not exist: %s", root)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			// Skip hidden directories (starting with .)
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if s.skipDirs[name] {
				return filepath.SkipDir
			}

			return nil
		}

		if s.extensions[strings.ToLower(filepath.Ext(d.Name()))] {
			fixtures = append(fixtures, path)
		}

		return nil
	})

	sort.Strings(fixtures)
	return fixtures, err
}

// Glob finds fixture files matching a doublestar pattern such as
// "fixtures/**/*.yaml", relative to base unless the pattern is absolute.
func (s *Scanner) Glob(base, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	if filepath.IsAbs(pattern) {
		base, pattern = doublestar.SplitPattern(filepath.ToSlash(pattern))
	}

	matches, err := doublestar.Glob(os.DirFS(base), filepath.ToSlash(pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	fixtures := make([]string, 0, len(matches))
	for _, m := range matches {
		if s.extensions[strings.ToLower(filepath.Ext(m))] {
			fixtures = append(fixtures, filepath.Join(base, filepath.FromSlash(m)))
		}
	}
	sort.Strings(fixtures)
	return fixtures, nil
}
