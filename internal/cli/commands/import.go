package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vcheck/internal/config"
	"vcheck/internal/fixture"
)

// ImportCommand converts a generated Hardhat/Chai harness into a fixture file
type ImportCommand struct {
	config *config.Config
}

// NewImportCommand creates a new ImportCommand
func NewImportCommand(cfg *config.Config) *ImportCommand {
	return &ImportCommand{config: cfg}
}

// Execute runs the command
func (ic *ImportCommand) Execute(cmd *cobra.Command, args []string) error {
	harnessPath := args[0]
	file, err := os.Open(harnessPath)
	if err != nil {
		return fmt.Errorf("open harness: %w", err)
	}
	defer file.Close()

	f, err := fixture.ImportHarness(file)
	if err != nil {
		return fmt.Errorf("import %s: %w", harnessPath, err)
	}

	output := ic.config.Flags.Output
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(harnessPath), filepath.Ext(harnessPath))
		output = filepath.Join(ic.config.GetFixturePath(), base+".json")
	}
	// The fixture is named after its file, like fixtures loaded without a name
	f.Name = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	if err := fixture.Save(output, f); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Imported %d case(s) of %s into %s", len(f.Cases), f.FunctionName(), output))
	return nil
}
