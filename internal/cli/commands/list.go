package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/storage"
	"stp/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	selector  *selector
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(cfg *config.Config, selector *selector, formatter *ui.Formatter) *ListCommand {
	return &ListCommand{
		config:    cfg,
		selector:  selector,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	cat, err := lc.selector.Select()
	if err != nil {
		return err
	}

	flags := lc.config.Flags
	if cat.Len() == 0 || (len(cat.Active()) == 0 && !flags.ShowAll) {
		color.Yellow("No scenarios found")
		return nil
	}

	if flags.ShowPlan {
		lc.formatter.PrintPlan(cat)
		return nil
	}

	// mark classes that failed last time; a missing results file is not an error
	last, _ := storage.NewJSONStorage(lc.config).Load()
	lc.formatter.PrintCatalog(cat, flags.TestCases, flags.ShowAll, ui.FailedClasses(last))
	return nil
}
