package commands

import (
	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/migration"
)

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	config *config.Config
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(cfg *config.Config) *MigrateCommand {
	return &MigrateCommand{config: cfg}
}

// Execute runs the command
func (mc *MigrateCommand) Execute(cmd *cobra.Command, args []string) error {
	var migrator migration.Migrator = migration.NewSchemaMigrator(mc.config, migration.NewDatabaseManager(mc.config))
	return migrator.Run(mc.config.Processors, mc.config.Flags.Fresh)
}
