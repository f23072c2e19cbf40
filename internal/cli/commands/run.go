package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vcheck/internal/config"
	"vcheck/internal/domain"
	"vcheck/internal/execution"
	"vcheck/internal/metrics"
	"vcheck/internal/migration"
	"vcheck/internal/storage"
	"vcheck/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	fixtures  *fixtureSource
	executor  *execution.WorkerPool
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
	dbManager *migration.DatabaseManager
	recorder  *metrics.Recorder
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	fixtures *fixtureSource,
	executor *execution.WorkerPool,
	st storage.Storage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
	dbManager *migration.DatabaseManager,
	recorder *metrics.Recorder,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		fixtures:  fixtures,
		executor:  executor,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
		dbManager: dbManager,
		recorder:  recorder,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := rc.config.Validate(); err != nil {
		return err
	}

	fixtures, err := rc.fixtures.Load()
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		color.Yellow("No fixtures to verify")
		return nil
	}

	total := 0
	for _, f := range fixtures {
		total += len(f.Cases)
	}
	rc.executor.SetProgress(ui.NewProgressBar(total))

	reports, duration, runErr := rc.executor.ExecuteWithOptions(ctx, fixtures, rc.config.Flags.FailFast)
	zap.L().Info("Run finished",
		zap.Int("fixtures", len(reports)),
		zap.Duration("duration", duration),
		zap.Error(runErr))

	output := storage.NewResultsOutput(reports, rc.config.Processors)
	if runErr != nil {
		output.AllPassed = false
	}

	if err := rc.storage.Save(ctx, output); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	if rc.config.Flags.DBSink {
		if err := rc.saveHistory(ctx, output); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
	}
	if rc.config.MetricsFile != "" {
		if err := rc.recorder.WriteTextfile(rc.config.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if rc.config.Flags.ShowCases {
		for _, r := range output.Reports {
			rc.formatter.PrintCases(r)
		}
	}
	rc.formatter.PrintSummary(output)

	if runErr != nil {
		return runErr
	}
	if !output.AllPassed {
		if rc.config.Flags.OpenFailures {
			if err := rc.viewer.View(output); err != nil {
				return err
			}
		}
		return domain.ErrCasesFailed
	}
	return nil
}

func (rc *RunCommand) saveHistory(ctx context.Context, output *domain.ResultsOutput) error {
	db, err := rc.dbManager.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := migration.Apply(ctx, db, rc.dbManager.Connection(), false, nil); err != nil {
		return err
	}
	if err := storage.NewSQLStorage(db).Save(ctx, output); err != nil {
		return err
	}
	zap.L().Debug("History recorded", zap.String("database", rc.dbManager.Describe()))
	return nil
}
