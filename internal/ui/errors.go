package ui

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"vcheck/internal/domain"
	"vcheck/internal/storage"
)

// ErrorViewer displays failed cases in an interactive TUI
type ErrorViewer struct {
	storage storage.Storage
}

// NewErrorViewer creates a new ErrorViewer. Resolved marks are written back to st.
func NewErrorViewer(st storage.Storage) *ErrorViewer {
	return &ErrorViewer{storage: st}
}

// View displays failed cases in an interactive TUI
func (ev *ErrorViewer) View(results *domain.ResultsOutput) error {
	failures := CollectFailures(results)
	if len(failures) == 0 {
		color.Green("✓ No failed cases found!")
		return nil
	}

	caseAt := func(index int) *domain.CaseResult {
		ref := failures[index]
		return &results.Reports[ref.Report].Cases[ref.Case]
	}
	reportAt := func(index int) *domain.RunReport {
		return &results.Reports[failures[index].Report]
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	listItemText := func(index int) string {
		c := caseAt(index)
		label := fmt.Sprintf("%s #%d %s", reportAt(index).Meta.Fixture, c.Index, c.Kind)
		if c.Resolved {
			return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, label)
		}
		return fmt.Sprintf("[yellow]%d.[white] %s", index+1, label)
	}

	for i := range failures {
		list.AddItem(listItemText(i), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		unresolved := 0
		for i := range failures {
			if !caseAt(i).Resolved {
				unresolved++
			}
		}
		headerView.SetText(fmt.Sprintf(" Failed Cases (%d total, %d unresolved) | Use ↑↓ to navigate, [yellow]R[white] to mark resolved, → to view details, ← to go back, Ctrl+C to exit ", len(failures), unresolved))
	}
	updateHeader()

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(failures) {
			statsView.SetText(formatFailureStats(reportAt(index), caseAt(index)))
			detailsView.SetText(formatFailureDetails(reportAt(index), caseAt(index)))
		}
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyDown:
			return event
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				index := list.GetCurrentItem()
				if index >= 0 && index < len(failures) {
					c := caseAt(index)
					c.Resolved = !c.Resolved
					list.SetItemText(index, listItemText(index), "")
					updateHeader()
					updateDetails()
					if err := ev.storage.Save(context.Background(), results); err != nil {
						zap.L().Warn("Saving resolved mark failed", zap.Error(err))
					}
				}
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// formatFailureDetails formats a failed case using tview color tags
func formatFailureDetails(r *domain.RunReport, c *domain.CaseResult) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[red]✗ %s[white]\n\n", c.Kind)
	fmt.Fprintf(w, "[cyan]Inputs:[white]\t%d, %d\n", c.InputA, c.InputB)
	fmt.Fprintf(w, "[cyan]Expected:[white]\t%d\n", c.Expected)
	if c.Actual != nil {
		fmt.Fprintf(w, "[cyan]Actual:[white]\t%d\n", *c.Actual)
	} else {
		fmt.Fprintf(w, "[cyan]Actual:[white]\t[gray]none[white]\n")
	}
	if len(c.Observed) > 0 {
		fmt.Fprintf(w, "[cyan]Observed:[white]\t%s\n", tview.Escape(fmt.Sprint(c.Observed)))
	}
	fmt.Fprintf(w, "[cyan]Duration:[white]\t%.1fms\n\n", c.DurationMs)

	if c.Detail != "" {
		fmt.Fprintf(w, "[yellow]Detail:[white]\n%s\n\n", tview.Escape(c.Detail))
	}

	fmt.Fprintf(w, "[yellow]Run:[white]\n")
	fmt.Fprintf(w, "  collaborator\t%s\n", tview.Escape(r.Meta.Collaborator))
	fmt.Fprintf(w, "  function\t%s\n", r.Meta.Function)
	fmt.Fprintf(w, "  timeout\t%gs\n", r.Meta.TimeoutSeconds)
	if r.Meta.FixtureDigest != "" {
		fmt.Fprintf(w, "  digest\t%s\n", r.Meta.FixtureDigest)
	}
	fmt.Fprintf(w, "  run id\t%s\n", r.Meta.RunID)

	w.Flush()
	return builder.String()
}

// formatFailureStats formats the header line for a failed case
func formatFailureStats(r *domain.RunReport, c *domain.CaseResult) string {
	path := r.Meta.FixturePath
	if path == "" {
		path = r.Meta.Fixture
	}
	return fmt.Sprintf("[cyan]fixture:[white] [yellow]%s[white]::[yellow]#%d[white]\n", tview.Escape(path), c.Index)
}
