package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"stp/internal/config"
	"stp/internal/domain"
)

// Schema creates the results tables. Statements are idempotent.
var Schema = []string{
	"CREATE TABLE IF NOT EXISTS `stp_runs` (" +
		"`id` CHAR(36) NOT NULL PRIMARY KEY," +
		"`created_at` VARCHAR(64) NOT NULL," +
		"`duration_seconds` DOUBLE NOT NULL," +
		"`workers` INT NOT NULL," +
		"`total_classes` INT NOT NULL," +
		"`passed_classes` INT NOT NULL," +
		"`failed_classes` INT NOT NULL," +
		"`total_cases` INT NOT NULL," +
		"`passed_cases` INT NOT NULL," +
		"`failed_cases` INT NOT NULL," +
		"`skipped_cases` INT NOT NULL," +
		"`seq` BIGINT NOT NULL AUTO_INCREMENT UNIQUE" +
		")",
	"CREATE TABLE IF NOT EXISTS `stp_case_results` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		"`run_id` CHAR(36) NOT NULL," +
		"`class` VARCHAR(512) NOT NULL," +
		"`name` VARCHAR(255) NOT NULL," +
		"`outcome` VARCHAR(16) NOT NULL," +
		"`duration_ms` BIGINT NOT NULL," +
		"`message` TEXT," +
		"INDEX `idx_case_run` (`run_id`)" +
		")",
	"CREATE TABLE IF NOT EXISTS `stp_failures` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		"`run_id` CHAR(36) NOT NULL," +
		"`class` VARCHAR(512) NOT NULL," +
		"`test_name` VARCHAR(255) NOT NULL," +
		"`message` TEXT," +
		"`stack_trace` TEXT," +
		"`file` VARCHAR(1024)," +
		"`line` INT NOT NULL DEFAULT 0," +
		"`resolved` BOOLEAN NOT NULL DEFAULT FALSE," +
		"INDEX `idx_failure_run` (`run_id`)" +
		")",
}

// Tables lists the results tables in drop order
var Tables = []string{"stp_failures", "stp_case_results", "stp_runs"}

const mysqlTimeout = 30 * time.Second

// MySQLStorage stores every run as one run row plus case and failure rows
type MySQLStorage struct {
	db *sql.DB
}

// NewMySQLStorage wraps an open results database
func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

// OpenMySQLStorage opens the configured results database. The connection is
// established on first use.
func OpenMySQLStorage(cfg *config.Config) (*MySQLStorage, error) {
	db, err := sql.Open("mysql", cfg.ResultsDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	return NewMySQLStorage(db), nil
}

// Close closes the database handle
func (s *MySQLStorage) Close() error {
	return s.db.Close()
}

// Save inserts a new run
func (s *MySQLStorage) Save(results []domain.ClassResult, failures []domain.TestFailure, duration time.Duration, workers int) error {
	return s.SaveOutput(NewOutput(results, failures, duration, workers))
}

// SaveOutput replaces the rows of output's run
func (s *MySQLStorage) SaveOutput(output *domain.TestResultsOutput) error {
	ctx, cancel := context.WithTimeout(context.Background(), mysqlTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results transaction: %w", err)
	}
	defer tx.Rollback()

	m := output.Meta
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO `stp_runs` (`id`, `created_at`, `duration_seconds`, `workers`, `total_classes`, `passed_classes`, `failed_classes`, `total_cases`, `passed_cases`, `failed_cases`, `skipped_cases`) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE `failed_cases` = VALUES(`failed_cases`), `passed_cases` = VALUES(`passed_cases`), `total_cases` = VALUES(`total_cases`)",
		m.RunID, m.Timestamp, m.DurationSeconds, m.Workers, m.TotalClasses, m.PassedClasses, m.FailedClasses,
		m.TotalCases, m.PassedCases, m.FailedCases, m.SkippedCases,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", m.RunID, err)
	}

	for _, table := range []string{"stp_case_results", "stp_failures"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM `"+table+"` WHERE `run_id` = ?", m.RunID); err != nil {
			return fmt.Errorf("clear %s for run %s: %w", table, m.RunID, err)
		}
	}

	for _, c := range output.Cases {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO `stp_case_results` (`run_id`, `class`, `name`, `outcome`, `duration_ms`, `message`) VALUES (?, ?, ?, ?, ?, ?)",
			m.RunID, c.Class, c.Name, string(c.Outcome), c.Duration.Milliseconds(), c.Message,
		); err != nil {
			return fmt.Errorf("insert case %s.%s: %w", c.Class, c.Name, err)
		}
	}

	for _, f := range output.Details {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO `stp_failures` (`run_id`, `class`, `test_name`, `message`, `stack_trace`, `file`, `line`, `resolved`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			m.RunID, f.Class, f.TestName, f.Message, strings.Join(f.StackTrace, "\n"), f.File, f.Line, f.Resolved,
		); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", m.RunID, err)
	}
	logrus.WithFields(logrus.Fields{"sink": "mysql", "run": m.RunID}).Debug("results saved")
	return nil
}

// Load reads the most recent run
func (s *MySQLStorage) Load() (*domain.TestResultsOutput, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mysqlTimeout)
	defer cancel()

	var (
		output domain.TestResultsOutput
		m      = &output.Meta
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT `id`, `created_at`, `duration_seconds`, `workers`, `total_classes`, `passed_classes`, `failed_classes`, `total_cases`, `passed_cases`, `failed_cases`, `skipped_cases` "+
			"FROM `stp_runs` ORDER BY `seq` DESC LIMIT 1",
	).Scan(&m.RunID, &m.Timestamp, &m.DurationSeconds, &m.Workers, &m.TotalClasses, &m.PassedClasses, &m.FailedClasses,
		&m.TotalCases, &m.PassedCases, &m.FailedCases, &m.SkippedCases)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no runs stored")
	}
	if err != nil {
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	m.Duration = time.Duration(m.DurationSeconds * float64(time.Second)).String()

	if output.Cases, err = s.loadCases(ctx, m.RunID); err != nil {
		return nil, err
	}
	if output.Details, err = s.loadFailures(ctx, m.RunID); err != nil {
		return nil, err
	}
	return &output, nil
}

func (s *MySQLStorage) loadCases(ctx context.Context, runID string) ([]domain.CaseResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `class`, `name`, `outcome`, `duration_ms`, COALESCE(`message`, '') FROM `stp_case_results` WHERE `run_id` = ? ORDER BY `id`", runID)
	if err != nil {
		return nil, fmt.Errorf("load cases of run %s: %w", runID, err)
	}
	defer rows.Close()

	cases := make([]domain.CaseResult, 0)
	for rows.Next() {
		var (
			c       domain.CaseResult
			outcome string
			ms      int64
		)
		if err := rows.Scan(&c.Class, &c.Name, &outcome, &ms, &c.Message); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.Outcome = domain.Outcome(outcome)
		c.Duration = time.Duration(ms) * time.Millisecond
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (s *MySQLStorage) loadFailures(ctx context.Context, runID string) ([]domain.TestFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT `class`, `test_name`, COALESCE(`message`, ''), COALESCE(`stack_trace`, ''), COALESCE(`file`, ''), `line`, `resolved` FROM `stp_failures` WHERE `run_id` = ? ORDER BY `id`", runID)
	if err != nil {
		return nil, fmt.Errorf("load failures of run %s: %w", runID, err)
	}
	defer rows.Close()

	failures := make([]domain.TestFailure, 0)
	for rows.Next() {
		var (
			f     domain.TestFailure
			stack string
		)
		if err := rows.Scan(&f.Class, &f.TestName, &f.Message, &stack, &f.File, &f.Line, &f.Resolved); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.StackTrace = []string{}
		if stack != "" {
			f.StackTrace = strings.Split(stack, "\n")
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
