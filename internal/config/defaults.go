package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultFixturePath is where fixtures are searched for by default
	DefaultFixturePath = "fixtures"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "vcheck-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultProcessors is the default number of fixtures run concurrently
	DefaultProcessors = 1
	// DefaultTimeout bounds the wait for a verdict event after each invocation.
	// Invocations are not retried.
	DefaultTimeout = 5 * time.Second
	// DefaultCollaborator is the function-under-test adapter used when none is given
	DefaultCollaborator = "process"
	// DefaultDatabaseName is the database used by the history sink. For
	// sqlite it names vcheck.db under the output directory.
	DefaultDatabaseName = "vcheck"
	// DefaultConnection is the history sink driver, mysql or sqlite
	DefaultConnection = "mysql"
	// DefaultConfigName is the optional config file name (without extension)
	DefaultConfigName = "vcheck"
	// EnvPrefix prefixes environment overrides, e.g. VCHECK_TIMEOUT=10s
	EnvPrefix = "VCHECK"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for fixtures
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"storage",
	"artifacts",
	"cache",
}

// FixtureExtensions are the file extensions recognised as fixtures
var FixtureExtensions = []string{".json", ".yaml", ".yml"}
