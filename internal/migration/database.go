package migration

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"stp/internal/config"
)

var databaseNamePattern = regexp.MustCompile(`^[A-Za-z0-9_$]{1,64}$`)

// DatabaseManager creates the per-worker scenario databases and the results database
type DatabaseManager struct {
	config *config.Config
	open   func(dsn string) (*sql.DB, error)
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config) *DatabaseManager {
	return &DatabaseManager{
		config: cfg,
		open:   func(dsn string) (*sql.DB, error) { return sql.Open("mysql", dsn) },
	}
}

// Databases lists the names EnsureDatabases creates: one per worker, then the results database
func (dm *DatabaseManager) Databases(workerCount int) []string {
	names := make([]string, 0, workerCount+1)
	for i := 1; i <= workerCount; i++ {
		names = append(names, dm.config.GetDatabaseName(i))
	}
	return append(names, dm.config.Database.Name)
}

// EnsureDatabases creates any missing database from Databases and reports
// how many were created
func (dm *DatabaseManager) EnsureDatabases(ctx context.Context, workerCount int) (int, error) {
	db, err := dm.open(dm.config.ServerDSN())
	if err != nil {
		return 0, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to ping database server: %w", err)
	}

	created := 0
	for _, name := range dm.Databases(workerCount) {
		exists, err := databaseExists(ctx, db, name)
		if err != nil {
			return created, fmt.Errorf("failed to check database %s: %w", name, err)
		}
		if exists {
			continue
		}
		if err := createDatabase(ctx, db, name); err != nil {
			return created, fmt.Errorf("failed to create database %s: %w", name, err)
		}
		logrus.WithField("database", name).Debug("database created")
		created++
	}
	return created, nil
}

// OpenResults connects to the results database
func (dm *DatabaseManager) OpenResults() (*sql.DB, error) {
	db, err := dm.open(dm.config.ResultsDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dm.config.Database.Name, err)
	}
	return db, nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

func createDatabase(ctx context.Context, db *sql.DB, name string) error {
	// identifiers cannot be bound as parameters
	if !isValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %q", name)
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name))
	return err
}

func isValidDatabaseName(name string) bool {
	return databaseNamePattern.MatchString(name)
}
