package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/domain"
	"stp/internal/execution"
	"stp/internal/parser"
	"stp/internal/storage"
	"stp/internal/ui"
)

// ErrRunFailed is returned when at least one class failed so the process exits non-zero
var ErrRunFailed = errors.New("scenario run failed")

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	selector  *selector
	parser    parser.Parser
	formatter *ui.Formatter
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(cfg *config.Config, selector *selector, p parser.Parser, formatter *ui.Formatter) *RunCommand {
	return &RunCommand{
		config:    cfg,
		selector:  selector,
		parser:    p,
		formatter: formatter,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	cat, err := rc.selector.Select()
	if err != nil {
		return err
	}

	active := cat.Active()
	if len(active) == 0 {
		color.Yellow("No scenarios to execute")
		return nil
	}

	st, closeStorage, err := openStorage(rc.config, rc.config.Flags.Publish)
	if err != nil {
		return err
	}
	defer closeStorage()

	runner := execution.NewCommandRunner(rc.config, rc.parser)
	pool := execution.NewWorkerPool(rc.config, runner, execution.NewRoundRobinScheduler(), rc.parser)
	pool.SetProgress(ui.NewProgressBar(len(active)))

	// the test host owns assembly hooks
	session := execution.NewSession(pool, nil)
	results, duration, runErr := session.Run(cmd.Context(), cat)

	var failures []domain.TestFailure
	failedClasses := 0
	for _, result := range results {
		if !result.Success {
			failedClasses++
			failures = append(failures, rc.parser.ParseFailure(result)...)
		}
	}

	output := storage.NewOutput(results, failures, duration, rc.config.Processors)
	if err := st.SaveOutput(output); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}

	rc.formatter.PrintMetaStats(output)
	if runErr != nil {
		return runErr
	}
	if failedClasses > 0 {
		cmd.SilenceUsage = true
		return ErrRunFailed
	}
	return nil
}
