package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vcheck/internal/config"
	"vcheck/internal/fixture"
)

// ExportCommand writes a fixture back out as a Hardhat/Chai harness
type ExportCommand struct {
	config *config.Config
}

// NewExportCommand creates a new ExportCommand
func NewExportCommand(cfg *config.Config) *ExportCommand {
	return &ExportCommand{config: cfg}
}

// Execute runs the command
func (ec *ExportCommand) Execute(cmd *cobra.Command, args []string) error {
	f, err := fixture.Load(args[0])
	if err != nil {
		return err
	}

	output := ec.config.Flags.Output
	if output == "" || output == "-" {
		return fixture.ExportHarness(cmd.OutOrStdout(), f, ec.config.Flags.Contract)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create harness: %w", err)
	}
	if err := fixture.ExportHarness(file, f, ec.config.Flags.Contract); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write harness: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("✓ Exported %d case(s) to %s", len(f.Cases), output))
	return nil
}
