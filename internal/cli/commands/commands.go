package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"vcheck/internal/cli"
	"vcheck/internal/config"
	"vcheck/internal/discovery"
	"vcheck/internal/domain"
	"vcheck/internal/execution"
	"vcheck/internal/metrics"
	"vcheck/internal/migration"
	"vcheck/internal/storage"
	"vcheck/internal/ui"
)

// Exit statuses of the vcheck binary
const (
	ExitOK     = 0
	ExitFailed = 1 // at least one case failed, or compared runs differ
	ExitFatal  = 2 // collaborator unavailable, bad fixture, bad flags
)

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrCasesFailed), errors.Is(err, ErrRunsDiffer):
		return ExitFailed
	default:
		return ExitFatal
	}
}

// Commands holds all CLI commands
type Commands struct {
	Run      *RunCommand
	List     *ListCommand
	Migrate  *MigrateCommand
	Failures *FailuresCommand
	Import   *ImportCommand
	Export   *ExportCommand
	Compare  *CompareCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	fixtures := &fixtureSource{config: cfg, filter: discovery.NewFilter()}
	recorder := metrics.NewRecorder()
	executor := execution.NewWorkerPool(cfg, execution.NewDeployerFactory(cfg), recorder)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg)
	dbManager := migration.NewDatabaseManager(cfg)
	migrator := migration.NewSchemaMigrator(dbManager, os.Stderr)
	errorViewer := ui.NewErrorViewer(jsonStorage)

	return &Commands{
		Run:      NewRunCommand(cfg, fixtures, executor, jsonStorage, formatter, errorViewer, dbManager, recorder),
		List:     NewListCommand(cfg, fixtures, formatter, jsonStorage),
		Migrate:  NewMigrateCommand(cfg, migrator),
		Failures: NewFailuresCommand(jsonStorage, errorViewer),
		Import:   NewImportCommand(cfg),
		Export:   NewExportCommand(cfg),
		Compare:  NewCompareCommand(formatter),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	applyFlags := func(cmd *cobra.Command, args []string) error {
		// Update config with flags after parsing
		cfg.ApplyFlags(flags.ToConfigFlags())
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Verify fixtures against the function-under-test",
		Long:    "Replay every case of the selected fixtures against a freshly deployed function-under-test and check the single verdict event of each invocation",
		RunE:    c.Run.Execute,
		PreRunE: applyFlags,
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of fixtures verified concurrently (default 1)")
	runCmd.Flags().StringVarP(&flags.FixturePath, "fixtures", "t", "", "Path to a fixture file or the folder where fixture detection should start")
	runCmd.Flags().StringVarP(&flags.Glob, "glob", "g", "", "Select fixtures with a glob relative to the project, e.g. 'fixtures/**/*.yaml'")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter fixtures by file name (supports wildcards, e.g. '*extremes*')")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "How long to wait for the verdict event of each case (default 5s)")
	runCmd.Flags().StringVar(&flags.Collaborator, "collaborator", "", "Function-under-test adapter: process or script")
	runCmd.Flags().StringVar(&flags.Command, "command", "", "Executable invoked as '<command> <a> <b>' by the process adapter")
	runCmd.Flags().StringVar(&flags.Script, "script", "", "Go source file defining Invoke(a, b int64) []int64 for the script adapter")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Start no new fixture after the first failed one")
	runCmd.Flags().BoolVar(&flags.DBSink, "db-sink", false, "Also record the run in the history database (see migrate)")
	runCmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics for the run to this file")
	runCmd.Flags().BoolVarP(&flags.ShowCases, "cases", "c", false, "Print a PASSED/FAILED line for every case")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered fixtures",
		Long:    "Scan and list fixture files without verifying them",
		RunE:    c.List.Execute,
		PreRunE: applyFlags,
	}
	listCmd.Flags().StringVarP(&flags.FixturePath, "fixtures", "t", "", "Path to a fixture file or the folder where fixture detection should start")
	listCmd.Flags().StringVarP(&flags.Glob, "glob", "g", "", "Select fixtures with a glob relative to the project")
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter fixtures by file name (supports wildcards)")
	listCmd.Flags().BoolVarP(&flags.ShowCases, "cases", "c", false, "List the cases of every fixture")
	rootCmd.AddCommand(listCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Create or update the run history database",
		Long:    "Create the history database (DB_CONNECTION mysql or sqlite, DB_DATABASE) and apply pending schema migrations",
		RunE:    c.Migrate.Execute,
		PreRunE: applyFlags,
	}
	migrateCmd.Flags().BoolVar(&flags.Fresh, "fresh", false, "Drop the history tables before migrating")
	rootCmd.AddCommand(migrateCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Short:   "View failed cases interactively",
		Long:    "Display the failed cases of the last run in an interactive viewer",
		RunE:    c.Failures.Execute,
		PreRunE: applyFlags,
	}
	rootCmd.AddCommand(failuresCmd)

	// Import command
	importCmd := &cobra.Command{
		Use:     "import <harness.js>",
		Short:   "Convert a generated Hardhat/Chai test into a fixture",
		Args:    cobra.ExactArgs(1),
		RunE:    c.Import.Execute,
		PreRunE: applyFlags,
	}
	importCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Fixture file to write (.json, .yaml or .yml; default <fixtures>/<harness>.json)")
	importCmd.Flags().StringVarP(&flags.FixturePath, "fixtures", "t", "", "Fixture folder used for the default output")
	rootCmd.AddCommand(importCmd)

	// Export command
	exportCmd := &cobra.Command{
		Use:     "export <fixture>",
		Short:   "Write a fixture as a Hardhat/Chai test",
		Args:    cobra.ExactArgs(1),
		RunE:    c.Export.Execute,
		PreRunE: applyFlags,
	}
	exportCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Harness file to write (default stdout)")
	exportCmd.Flags().StringVar(&flags.Contract, "contract", "", "Contract deployed by the harness (default Contract)")
	rootCmd.AddCommand(exportCmd)

	// Compare command
	compareCmd := &cobra.Command{
		Use:     "compare <left.json> <right.json>",
		Short:   "Compare two stored runs case by case",
		Long:    "Match reports by fixture and cases by index; any difference in outcome, verdict or fixture digest is reported and fails the command",
		Args:    cobra.ExactArgs(2),
		RunE:    c.Compare.Execute,
		PreRunE: applyFlags,
	}
	rootCmd.AddCommand(compareCmd)
}
