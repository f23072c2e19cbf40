package cli

import (
	"time"

	"vcheck/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	ProjectPath  string
	ConfigFile   string
	Verbose      bool
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
	Fresh        bool
	Output       string
	Contract     string
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors:   f.Processors,
		FixturePath:  f.FixturePath,
		Glob:         f.Glob,
		NameFilter:   f.NameFilter,
		Timeout:      f.Timeout,
		Collaborator: f.Collaborator,
		Command:      f.Command,
		Script:       f.Script,
		FailFast:     f.FailFast,
		DBSink:       f.DBSink,
		MetricsFile:  f.MetricsFile,
		ShowCases:    f.ShowCases,
		OpenFailures: f.OpenFailures,
		Verbose:      f.Verbose,
		ConfigFile:   f.ConfigFile,
		Fresh:        f.Fresh,
		Output:       f.Output,
		Contract:     f.Contract,
	}
}
