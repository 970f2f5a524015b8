package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"stp/internal/cli"
	"stp/internal/cli/commands"
	"stp/internal/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "stp",
		Short:   "Scenario test processor",
		Long:    `Catalogs scenario test classes from source, selects them by name, case and category, and runs each class in its own test host process across parallel workers.`,
		Version: version,
	}

	cfg := config.New()

	// populated by command flags
	var flags cli.Flags

	cmds := commands.NewCommands(cfg)
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
