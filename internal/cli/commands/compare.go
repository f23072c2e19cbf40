package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vcheck/internal/compare"
	"vcheck/internal/storage"
	"vcheck/internal/ui"
)

// ErrRunsDiffer is returned by the compare command when the runs disagree
var ErrRunsDiffer = errors.New("runs differ")

// CompareCommand compares two stored results files case by case
type CompareCommand struct {
	formatter *ui.Formatter
}

// NewCompareCommand creates a new CompareCommand
func NewCompareCommand(formatter *ui.Formatter) *CompareCommand {
	return &CompareCommand{formatter: formatter}
}

// Execute runs the command
func (cc *CompareCommand) Execute(cmd *cobra.Command, args []string) error {
	left, err := storage.NewJSONFile(args[0]).Load(cmd.Context())
	if err != nil {
		return err
	}
	right, err := storage.NewJSONFile(args[1]).Load(cmd.Context())
	if err != nil {
		return err
	}

	diffs := compare.Outputs(left, right)
	cc.formatter.PrintDifferences(args[0], args[1], diffs)
	if len(diffs) > 0 {
		return fmt.Errorf("%w: %d difference(s)", ErrRunsDiffer, len(diffs))
	}
	return nil
}
