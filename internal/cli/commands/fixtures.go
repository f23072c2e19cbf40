package commands

import (
	"fmt"

	"vcheck/internal/config"
	"vcheck/internal/discovery"
	"vcheck/internal/domain"
	"vcheck/internal/fixture"
)

// fixtureSource finds and loads the fixtures selected by the config flags
type fixtureSource struct {
	config *config.Config
	filter *discovery.Filter
}

// Paths returns the selected fixture files: --glob relative to the project,
// otherwise everything under the fixture path, narrowed by --filter.
func (fs *fixtureSource) Paths() ([]string, error) {
	var (
		paths []string
		err   error
	)
	scanner := discovery.NewScanner(fs.config.PathsToIgnore, config.FixtureExtensions)
	if fs.config.Flags.Glob != "" {
		paths, err = scanner.Glob(fs.config.ProjectPath, fs.config.Flags.Glob)
	} else {
		paths, err = scanner.Scan(fs.config.GetFixturePath())
	}
	if err != nil {
		return nil, err
	}
	return fs.filter.FilterByName(paths, fs.config.Flags.NameFilter), nil
}

// Load reads every selected fixture. A single invalid fixture fails the load.
func (fs *fixtureSource) Load() ([]*domain.Fixture, error) {
	paths, err := fs.Paths()
	if err != nil {
		return nil, err
	}

	fixtures := make([]*domain.Fixture, 0, len(paths))
	for _, path := range paths {
		f, err := fixture.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load fixture %s: %w", path, err)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}
