package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vcheck/internal/config"
	"vcheck/internal/storage"
	"vcheck/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	fixtures  *fixtureSource
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(cfg *config.Config, fixtures *fixtureSource, formatter *ui.Formatter, st storage.Storage) *ListCommand {
	return &ListCommand{
		config:    cfg,
		fixtures:  fixtures,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	fixtures, err := lc.fixtures.Load()
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		color.Yellow("No fixtures found")
		return nil
	}

	lc.formatter.PrintFixtureList(fixtures, lc.config.Flags.ShowCases, lc.failedFixtures(cmd.Context()))
	return nil
}

// failedFixtures names the fixtures that failed in the last stored run.
// Without a stored run nothing is marked.
func (lc *ListCommand) failedFixtures(ctx context.Context) map[string]struct{} {
	output, err := lc.storage.Load(ctx)
	if err != nil {
		return nil
	}
	failed := make(map[string]struct{})
	for _, r := range output.Reports {
		if !r.AllPassed {
			failed[r.Meta.Fixture] = struct{}{}
		}
	}
	return failed
}
