package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	FixturePath string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string
	MetricsFile    string

	// Execution settings
	Processors int
	Timeout    time.Duration

	// Collaborator settings
	Collaborator CollaboratorConfig

	// Database settings for the history sink
	Database DatabaseConfig

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Command flags
	Flags Flags
}

// CollaboratorConfig selects and configures the function-under-test adapter
type CollaboratorConfig struct {
	Kind    string   // "process" or "script"
	Command string   // executable for the process adapter
	Args    []string // leading arguments, the inputs are appended
	Script  string   // Go source file for the script adapter
	Dir     string   // working directory for the process adapter
}

// DatabaseConfig holds history sink connection settings
type DatabaseConfig struct {
	Connection string // "mysql" or "sqlite"
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
}

// Flags holds command-line flags
type Flags struct {
	Processors   int
	FixturePath  string
	Glob         string
	NameFilter   string
	Timeout      time.Duration
	Collaborator string
	Command      string
	Script       string
	FailFast     bool
	DBSink       bool
	MetricsFile  string
	ShowCases    bool
	OpenFailures bool
	Verbose      bool
	ConfigFile   string
	Fresh        bool
	Output       string
	Contract     string
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		FixturePath:    DefaultFixturePath,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Timeout:        DefaultTimeout,
		Collaborator:   CollaboratorConfig{Kind: DefaultCollaborator},
		Database: DatabaseConfig{
			Connection: DefaultConnection,
			Host:       "127.0.0.1",
			Port:       "3306",
			User:       "root",
			Name:       DefaultDatabaseName,
		},
		Flags: Flags{Processors: DefaultProcessors},
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// ApplyFlags copies parsed flags into the config. Zero-valued flags keep the
// current (default, file or environment) value.
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags

	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.Timeout > 0 {
		c.Timeout = flags.Timeout
	}
	if flags.FixturePath != "" {
		c.FixturePath = flags.FixturePath
	}
	if flags.Collaborator != "" {
		c.Collaborator.Kind = flags.Collaborator
	}
	if flags.Command != "" {
		c.Collaborator.Command = flags.Command
	}
	if flags.Script != "" {
		c.Collaborator.Script = flags.Script
		if flags.Collaborator == "" {
			c.Collaborator.Kind = "script"
		}
	}
	if flags.MetricsFile != "" {
		c.MetricsFile = flags.MetricsFile
	}
}

// Validate checks settings that would otherwise fail late in a run
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.Collaborator.Kind {
	case "process":
		if c.Collaborator.Command == "" {
			return fmt.Errorf("process collaborator needs a command (--command or VCHECK_COMMAND)")
		}
	case "script":
		if c.Collaborator.Script == "" {
			return fmt.Errorf("script collaborator needs a script file (--script or VCHECK_SCRIPT)")
		}
	default:
		return fmt.Errorf("unknown collaborator %q (want process or script)", c.Collaborator.Kind)
	}
	return nil
}

// GetFixturePath returns the fixture path, relative to the project unless absolute
func (c *Config) GetFixturePath() string {
	if filepath.IsAbs(c.FixturePath) {
		return c.FixturePath
	}
	return filepath.Join(c.ProjectPath, c.FixturePath)
}

// GetOutputPath returns the full path to the output JSON file (under project so run and failures use the same file).
// Resolves to an absolute path so both commands always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetScriptPath resolves the script collaborator source file
func (c *Config) GetScriptPath() string {
	if c.Collaborator.Script == "" || filepath.IsAbs(c.Collaborator.Script) {
		return c.Collaborator.Script
	}
	return filepath.Join(c.ProjectPath, c.Collaborator.Script)
}

// GetDatabaseName returns the history database name, honouring DB_DATABASE
func (c *Config) GetDatabaseName() string {
	if name := os.Getenv("DB_DATABASE"); name != "" {
		return name
	}
	return c.Database.Name
}

// GetSQLitePath returns the sqlite history file. A bare database name becomes
// <name>.db in the output directory.
func (c *Config) GetSQLitePath() string {
	name := c.GetDatabaseName()
	if filepath.Ext(name) == "" && !strings.ContainsRune(name, filepath.Separator) {
		name = filepath.Join(c.ProjectPath, c.OutputJSONDir, name+".db")
	} else if !filepath.IsAbs(name) {
		name = filepath.Join(c.ProjectPath, name)
	}
	return name
}

// DSN returns the MySQL data source name. withDatabase=false connects to the server only.
func (c *Config) DSN(withDatabase bool) string {
	db := ""
	if withDatabase {
		db = c.GetDatabaseName()
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, db)
}
