package commands

import (
	"github.com/spf13/cobra"

	"stp/internal/cli"
	"stp/internal/config"
	"stp/internal/discovery"
	"stp/internal/logging"
	"stp/internal/parser"
	"stp/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run      *RunCommand
	List     *ListCommand
	Migrate  *MigrateCommand
	Failures *FailuresCommand
	Publish  *PublishCommand
}

// NewCommands creates all commands with dependencies. Components that depend
// on file or environment settings are built when a command executes, after
// the config has been applied.
func NewCommands(cfg *config.Config) *Commands {
	selector := newSelector(cfg, discovery.NewParser(), discovery.NewFilter())
	vstestParser := parser.NewVSTestParser()
	formatter := ui.NewFormatter(cfg, nil)

	return &Commands{
		Run:      NewRunCommand(cfg, selector, vstestParser, formatter),
		List:     NewListCommand(cfg, selector, formatter),
		Migrate:  NewMigrateCommand(cfg),
		Failures: NewFailuresCommand(cfg, selector, vstestParser),
		Publish:  NewPublishCommand(cfg),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to the config file (default <project>/stp.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging on stderr")

	prepare := func(cmd *cobra.Command, args []string) error {
		logging.Setup(flags.Verbose)
		return cfg.Apply(flags.ToConfigFlags())
	}

	selection := func(cmd *cobra.Command) {
		cmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where scenario discovery should start")
		cmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter classes by name pattern (supports wildcards, e.g. '*Blob*' or 'Functional.Queue.*')")
		cmd.Flags().StringVar(&flags.CaseFilter, "case", "", "Filter cases by method name pattern (supports wildcards)")
		cmd.Flags().StringArrayVarP(&flags.Include, "include", "i", nil, "Run only cases in this category (repeatable)")
		cmd.Flags().StringArrayVarP(&flags.Exclude, "exclude", "e", nil, "Skip cases in this category (repeatable)")
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Run scenario classes in parallel",
		Long:    "Discover, select and execute scenario classes using parallel workers, one test host process per class",
		RunE:    c.Run.Execute,
		PreRunE: prepare,
	}
	selection(runCmd)
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of workers to use (default from config, 4)")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first failed class")
	runCmd.Flags().BoolVar(&flags.Publish, "publish", false, "Also upload the results to the configured blob container")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered scenario classes",
		Long:    "Scan and list scenario classes and cases without executing them",
		RunE:    c.List.Execute,
		PreRunE: prepare,
	}
	selection(listCmd)
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List cases and lifecycle bindings under each class")
	listCmd.Flags().BoolVar(&flags.ShowPlan, "plan", false, "Print the invocation order of every active class")
	listCmd.Flags().BoolVar(&flags.ShowAll, "all", false, "Include suspended, idle and empty classes and disabled cases")
	rootCmd.AddCommand(listCmd)

	// Migrate command
	migrateCmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Create worker databases and the results schema",
		Long:    "Create one database per worker plus the results database, then apply the results schema",
		RunE:    c.Migrate.Execute,
		PreRunE: prepare,
	}
	migrateCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of worker databases to create (default from config, 4)")
	migrateCmd.Flags().BoolVar(&flags.Fresh, "fresh", false, "Drop the results tables before creating them")
	rootCmd.AddCommand(migrateCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Aliases: []string{"faills"},
		Short:   "View scenario failures interactively",
		Long:    "Display failures from the last run in an interactive viewer",
		RunE:    c.Failures.Execute,
		PreRunE: prepare,
	}
	rootCmd.AddCommand(failuresCmd)

	// Publish command
	publishCmd := &cobra.Command{
		Use:     "publish",
		Short:   "Upload the last results to blob storage",
		Long:    "Upload the last results file to the configured Azure Blob Storage container",
		RunE:    c.Publish.Execute,
		PreRunE: prepare,
	}
	rootCmd.AddCommand(publishCmd)
}
