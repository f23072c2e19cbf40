package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"vcheck/internal/compare"
	"vcheck/internal/config"
	"vcheck/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to stdout
func NewFormatter(cfg *config.Config) *Formatter {
	return NewFormatterTo(cfg, os.Stdout)
}

// NewFormatterTo creates a new Formatter writing to out
func NewFormatterTo(cfg *config.Config, out io.Writer) *Formatter {
	return &Formatter{config: cfg, out: out}
}

func (f *Formatter) row(label string, value string) {
	fmt.Fprintf(f.out, "│ %-31s │ %-27s │\n", label, value)
}

const (
	tableTop    = "┌─────────────────────────────────┬─────────────────────────────┐"
	tableMiddle = "├─────────────────────────────────┼─────────────────────────────┤"
	tableBottom = "└─────────────────────────────────┴─────────────────────────────┘"
)

// PrintSummary prints run statistics and, when something failed, a tree of
// the failed cases per fixture.
func (f *Formatter) PrintSummary(output *domain.ResultsOutput) {
	var passedFixtures, failedFixtures, totalCases, failedCases int
	var seconds float64
	for i := range output.Reports {
		m := output.Reports[i].Meta
		if output.Reports[i].AllPassed {
			passedFixtures++
		} else {
			failedFixtures++
		}
		totalCases += len(output.Reports[i].Cases)
		failedCases += m.FailedCases
		seconds += m.DurationSeconds
	}

	fmt.Fprint(f.out, "\n")
	fmt.Fprintln(f.out, color.CyanString("╔═══════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(f.out, color.CyanString("║                 Verification Statistics                       ║"))
	fmt.Fprintln(f.out, color.CyanString("╚═══════════════════════════════════════════════════════════════╝"))
	fmt.Fprint(f.out, "\n")

	fmt.Fprintln(f.out, tableTop)
	f.row("Fixtures", fmt.Sprint(len(output.Reports)))
	fmt.Fprintln(f.out, tableMiddle)
	f.row("Passed Fixtures", color.GreenString("%-27d", passedFixtures))
	fmt.Fprintln(f.out, tableMiddle)
	f.row("Failed Fixtures", color.RedString("%-27d", failedFixtures))
	fmt.Fprintln(f.out, tableMiddle)
	f.row("Scored Cases", fmt.Sprint(totalCases))
	fmt.Fprintln(f.out, tableMiddle)
	f.row("Failed Cases", color.RedString("%-27d", failedCases))
	fmt.Fprintln(f.out, tableMiddle)
	f.row("Duration (sum)", fmt.Sprintf("%.2fs", seconds))
	fmt.Fprintln(f.out, tableMiddle)
	f.row("Workers", fmt.Sprint(output.Workers))
	fmt.Fprintln(f.out, tableMiddle)
	f.row("Timestamp", output.Timestamp)
	fmt.Fprintln(f.out, tableBottom)

	fmt.Fprintln(f.out)
	if output.AllPassed {
		fmt.Fprintln(f.out, color.GreenString("✓ All cases passed!"))
		return
	}
	fmt.Fprintln(f.out, color.RedString("✗ %d fixture(s) failed with %d case failure(s)", failedFixtures, failedCases))
	fmt.Fprintln(f.out)
	f.printFailureTree(output.Reports)
}

func (f *Formatter) printFailureTree(reports []domain.RunReport) {
	var failed []domain.RunReport
	for _, r := range reports {
		if !r.AllPassed {
			failed = append(failed, r)
		}
	}

	for i, r := range failed {
		lastReport := i == len(failed)-1
		branch, indent := "├── ", "│   "
		if lastReport {
			branch, indent = "└── ", "    "
		}

		fmt.Fprintln(f.out, color.YellowString("%s%s", branch, f.displayPath(r)))
		lines := failureLines(r)
		for j, line := range lines {
			leaf := "├── "
			if j == len(lines)-1 {
				leaf = "└── "
			}
			fmt.Fprintln(f.out, indent+leaf+color.RedString("%s", line))
		}
	}
}

func failureLines(r domain.RunReport) []string {
	var lines []string
	if r.Meta.Error != "" {
		lines = append(lines, "run error: "+r.Meta.Error)
	}
	if r.Meta.Aborted {
		lines = append(lines, fmt.Sprintf("aborted after %d of %d cases", len(r.Cases), r.Meta.TotalCases))
	}
	for _, c := range r.Failures() {
		lines = append(lines, CaseLine(c))
	}
	return lines
}

// CaseLine describes a case in one line, e.g. "#3 (62, 62) -> 1: MismatchedVerdict: expected 1, got 0"
func CaseLine(c domain.CaseResult) string {
	line := fmt.Sprintf("#%d (%d, %d) -> %d", c.Index, c.InputA, c.InputB, c.Expected)
	if c.Passed {
		return line
	}
	line += ": " + string(c.Kind)
	if c.Detail != "" {
		line += ": " + c.Detail
	}
	return line
}

func (f *Formatter) displayPath(r domain.RunReport) string {
	if r.Meta.FixturePath == "" {
		return r.Meta.Fixture
	}
	return f.relative(r.Meta.FixturePath)
}

func (f *Formatter) relative(path string) string {
	if f.config == nil || f.config.ProjectPath == "" {
		return path
	}
	base, err := filepath.Abs(f.config.ProjectPath)
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(base, abs); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// PrintCases prints one PASSED/FAILED line per case of a report
func (f *Formatter) PrintCases(r domain.RunReport) {
	fmt.Fprintln(f.out, color.CyanString("%s (%s)", r.Meta.Fixture, r.Meta.Collaborator))
	for _, c := range r.Cases {
		if c.Passed {
			fmt.Fprintf(f.out, "  %s %s\n", color.GreenString("[PASSED]"), CaseLine(c))
		} else {
			fmt.Fprintf(f.out, "  %s %s\n", color.RedString("[FAILED]"), CaseLine(c))
		}
	}
	summary := fmt.Sprintf("  Passed %d/%d", r.Meta.PassedCases, r.Meta.TotalCases)
	if r.AllPassed {
		fmt.Fprintln(f.out, color.GreenString("%s", summary))
	} else {
		fmt.Fprintln(f.out, color.RedString("%s", summary))
	}
}

// PrintFixtureList prints fixture files, optionally with their cases.
// failed is optional; fixtures named in it are marked with [F] (from the last run).
func (f *Formatter) PrintFixtureList(fixtures []*domain.Fixture, showCases bool, failed map[string]struct{}) {
	fmt.Fprintln(f.out, color.GreenString("Found %d fixture file(s):", len(fixtures)))
	fmt.Fprintln(f.out)

	for i, fx := range fixtures {
		lastFixture := i == len(fixtures)-1
		branch, indent := "├── ", "│   "
		if lastFixture {
			branch, indent = "└── ", "    "
		}

		failMarker := ""
		if _, ok := failed[fx.Name]; ok {
			failMarker = " " + color.RedString("[F]")
		}
		fmt.Fprintf(f.out, "%s%s %s%s\n", branch,
			color.CyanString("%s", f.relative(fx.Path)),
			color.WhiteString("(%s, %d cases)", fx.FunctionName(), len(fx.Cases)),
			failMarker)

		if !showCases {
			continue
		}
		for j, tc := range fx.Cases {
			leaf := "├── "
			if j == len(fx.Cases)-1 {
				leaf = "└── "
			}
			fmt.Fprintf(f.out, "%s%s%s\n", indent, leaf, color.YellowString("#%d %s", j, tc))
		}
		if !lastFixture {
			fmt.Fprintln(f.out, indent)
		}
	}
}

// PrintDifferences prints the outcome of comparing two runs
func (f *Formatter) PrintDifferences(left, right string, diffs []compare.Difference) {
	if len(diffs) == 0 {
		fmt.Fprintln(f.out, color.GreenString("✓ %s and %s agree on every case", left, right))
		return
	}
	fmt.Fprintln(f.out, color.RedString("✗ %d difference(s) between %s and %s:", len(diffs), left, right))
	for _, d := range diffs {
		fmt.Fprintf(f.out, "  %s\n", color.YellowString("%s", d))
	}
}
