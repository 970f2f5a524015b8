package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/domain"
	"stp/internal/execution"
	"stp/internal/parser"
	"stp/internal/ui"
)

// FailuresCommand handles the failures command
type FailuresCommand struct {
	config   *config.Config
	selector *selector
	parser   parser.Parser
}

// NewFailuresCommand creates a new FailuresCommand
func NewFailuresCommand(cfg *config.Config, selector *selector, p parser.Parser) *FailuresCommand {
	return &FailuresCommand{config: cfg, selector: selector, parser: p}
}

// Execute loads the last run and opens the viewer. Resolved toggles are
// written back to every configured sink.
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	st, closeStorage, err := openStorage(fc.config, false)
	if err != nil {
		return err
	}
	defer closeStorage()

	results, err := st.Load()
	if err != nil {
		return err
	}

	viewer := ui.NewFailureViewer(st, newRerunner(fc.selector, execution.NewCommandRunner(fc.config, fc.parser)))
	return viewer.View(results)
}

// rerunner reruns single cases directly and whole classes through the
// discovered catalog, so a class rerun selects its effective cases
type rerunner struct {
	*execution.CommandRunner
	selector *selector
}

func newRerunner(s *selector, runner *execution.CommandRunner) *rerunner {
	return &rerunner{CommandRunner: runner, selector: s}
}

// RunClassNamed looks the class up in a fresh catalog and runs it
func (r *rerunner) RunClassNamed(ctx context.Context, class string, workerID int) domain.ClassResult {
	cat, err := r.selector.Select()
	if err != nil {
		return domain.ClassResult{Class: class, WorkerID: workerID, Error: err}
	}
	unit, ok := cat.Lookup(class)
	if !ok {
		return domain.ClassResult{Class: class, WorkerID: workerID, Error: fmt.Errorf("class %s not found under %s", class, r.selector.config.GetTestPath())}
	}
	return r.RunClass(ctx, cat, unit, workerID)
}
