package ui

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"stp/internal/domain"
	"stp/internal/storage"
)

// CaseRunner reruns recorded failures
type CaseRunner interface {
	RunCase(ctx context.Context, class, method string, workerID int) domain.ClassResult
	// RunClassNamed reruns every selected case of the named class
	RunClassNamed(ctx context.Context, class string, workerID int) domain.ClassResult
}

var _ Viewer = (*FailureViewer)(nil)

// FailureViewer displays failed cases in an interactive TUI
type FailureViewer struct {
	storage storage.Storage
	runner  CaseRunner
}

// NewFailureViewer creates a FailureViewer. runner may be nil, which disables reruns.
func NewFailureViewer(st storage.Storage, runner CaseRunner) *FailureViewer {
	return &FailureViewer{storage: st, runner: runner}
}

// View displays failures from results. R toggles resolved, X reruns the
// selected case and marks it resolved when it passes. Both persist through storage.
func (fv *FailureViewer) View(results *domain.TestResultsOutput) error {
	if len(results.Details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	app := tview.NewApplication()
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	for i := range results.Details {
		list.AddItem(listItemText(results.Details[i], i), "", 0, nil)
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

	status := ""
	updateHeader := func() {
		text := fmt.Sprintf(" Failures (%d total, %d unresolved) | ↑↓ navigate, [yellow]R[white] resolve, [yellow]X[white] rerun, → details, ← back, Ctrl+C exit ",
			len(results.Details), unresolvedCount(results.Details))
		if status != "" {
			text += "| " + status
		}
		headerView.SetText(text)
	}

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(results.Details) {
			statsView.SetText(formatFailureStats(results.Details[index], index+1))
			detailsView.SetText(formatFailureDetails(results.Details[index]))
		}
	}

	refresh := func(index int) {
		list.SetItemText(index, listItemText(results.Details[index], index), "")
		updateHeader()
		updateDetails()
	}

	persist := func() {
		if err := fv.storage.SaveOutput(results); err != nil {
			status = fmt.Sprintf("[red]save failed: %v[white]", err)
		} else {
			status = ""
		}
	}

	rerun := func(index int) {
		failure := results.Details[index]
		status = fmt.Sprintf("[yellow]running %s...[white]", failure.Key())
		updateHeader()
		go func() {
			result := rerunFailure(context.Background(), fv.runner, failure)
			app.QueueUpdateDraw(func() {
				if result.Success {
					results.Details[index].Resolved = true
					persist()
					if status == "" {
						status = fmt.Sprintf("[green]%s passed[white]", failure.Key())
					}
				} else {
					status = fmt.Sprintf("[red]%s still failing[white]", failure.Key())
				}
				refresh(index)
			})
		}()
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
			index := list.GetCurrentItem()
			if index < 0 || index >= len(results.Details) {
				return event
			}
			switch event.Rune() {
			case 'r', 'R':
				results.Details[index].Resolved = !results.Details[index].Resolved
				persist()
				refresh(index)
				return nil
			case 'x', 'X':
				if fv.runner != nil {
					rerun(index)
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

	updateHeader()
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

func unresolvedCount(failures []domain.TestFailure) int {
	count := 0
	for _, f := range failures {
		if !f.Resolved {
			count++
		}
	}
	return count
}

func listItemText(failure domain.TestFailure, index int) string {
	name := failure.TestName
	if name == "" {
		name = fmt.Sprintf("Test %d", index+1)
	}
	if failure.Resolved {
		return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, name)
	}
	return fmt.Sprintf("[yellow]%d.[white] %s", index+1, name)
}

// formatFailureDetails renders a failure with tview color tags
func formatFailureDetails(failure domain.TestFailure) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[red]✗ Test: %s[white]\n\n", tview.Escape(failure.TestName))
	fmt.Fprintf(w, "[cyan]Class: %s[white]\n", failure.Class)
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(w, "[yellow]Location: %s:%d[white]\n", failure.File, failure.Line)
	}
	fmt.Fprintf(w, "\n")

	if failure.Message != "" {
		fmt.Fprintf(w, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}

	if len(failure.StackTrace) > 0 {
		fmt.Fprintf(w, "[yellow]Stack Trace:[white]\n")
		for i, trace := range failure.StackTrace {
			if i < 10 {
				fmt.Fprintf(w, "  %s\n", tview.Escape(trace))
			}
		}
		if len(failure.StackTrace) > 10 {
			fmt.Fprintf(w, "  [gray]... and %d more lines[white]\n", len(failure.StackTrace)-10)
		}
	}

	w.Flush()
	return builder.String()
}

func formatFailureStats(failure domain.TestFailure, number int) string {
	class := failure.Class
	if class == "" {
		class = "Unknown class"
	}
	name := failure.TestName
	if name == "" {
		name = fmt.Sprintf("Test %d", number)
	}
	return fmt.Sprintf("[cyan]class:[white] [yellow]%s[white]::[yellow]%s[white]\n", class, tview.Escape(name))
}

// rerunFailure reruns the failed case, or the whole class when the failure
// was recorded against the class
func rerunFailure(ctx context.Context, runner CaseRunner, failure domain.TestFailure) domain.ClassResult {
	if failure.IsClassLevel() {
		return runner.RunClassNamed(ctx, failure.Class, 1)
	}
	return runner.RunCase(ctx, failure.Class, failure.TestName, 1)
}
