package migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"stp/internal/config"
	"stp/internal/storage"
)

const migrateTimeout = 5 * time.Minute

// SchemaMigrator creates the worker databases and applies the results schema
type SchemaMigrator struct {
	config          *config.Config
	databaseManager *DatabaseManager
	quiet           bool
}

// NewSchemaMigrator creates a new SchemaMigrator
func NewSchemaMigrator(cfg *config.Config, dbManager *DatabaseManager) *SchemaMigrator {
	return &SchemaMigrator{config: cfg, databaseManager: dbManager}
}

// Run ensures every database exists, then applies the schema statements to the results database
func (sm *SchemaMigrator) Run(workerCount int, fresh bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if !sm.quiet {
		color.Cyan("\n╔════════════════════════════════════════════════════════════╗")
		color.Cyan("║               Preparing Result Databases                   ║")
		color.Cyan("╚════════════════════════════════════════════════════════════╝\n")
	}
	startTime := time.Now()

	created, err := sm.databaseManager.EnsureDatabases(ctx, workerCount)
	if err != nil {
		return fmt.Errorf("failed to check databases: %w", err)
	}

	db, err := sm.databaseManager.OpenResults()
	if err != nil {
		return err
	}
	defer db.Close()

	statements := sm.statements(fresh)
	bar := sm.newBar(len(statements))
	for i, stmt := range statements {
		if err := exec(ctx, db, stmt); err != nil {
			bar.Exit()
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
		bar.Add(1)
		bar.Describe(color.CyanString("Migrating: ") +
			color.GreenString("[completed: %d/%d]", i+1, len(statements)))
	}
	bar.Finish()

	if !sm.quiet {
		fmt.Print("\n")
		color.Green("✓ %d database(s) ready, %d created, results schema on %s\n",
			workerCount+1, created, sm.config.Database.Name)
		color.White("Duration: %s\n", time.Since(startTime).Round(time.Millisecond))
	}
	return nil
}

func (sm *SchemaMigrator) statements(fresh bool) []string {
	var stmts []string
	if fresh {
		for _, table := range storage.Tables {
			stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table))
		}
	}
	return append(stmts, storage.Schema...)
}

func (sm *SchemaMigrator) newBar(total int) *progressbar.ProgressBar {
	if sm.quiet {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(
			color.CyanString("Migrating: ")+
				color.GreenString("[completed: 0/%d]", total),
		),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func exec(ctx context.Context, db *sql.DB, stmt string) error {
	_, err := db.ExecContext(ctx, stmt)
	return err
}
