package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string `yaml:"project_path"`
	TestPath    string `yaml:"test_path"`

	// Output settings
	OutputJSONFile string `yaml:"output_file"`
	OutputJSONDir  string `yaml:"output_dir"`

	// Execution settings
	Processors   int           `yaml:"processors"`
	Command      []string      `yaml:"command"`
	ClassTimeout time.Duration `yaml:"class_timeout"`

	// Discovery settings
	PathsToIgnore  []string `yaml:"paths_to_ignore"`
	SourceSuffixes []string `yaml:"source_suffixes"`

	// Default category selection, extended by flags
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	Results  ResultsConfig  `yaml:"results"`
	Database DatabaseConfig `yaml:"database"`
	Blob     BlobConfig     `yaml:"blob"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// ResultsConfig selects the sinks a run is saved to besides the JSON file
type ResultsConfig struct {
	MySQL bool `yaml:"mysql"`
	Blob  bool `yaml:"blob"`
}

// DatabaseConfig holds the MySQL connection used for worker databases and results
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Prefix   string `yaml:"prefix"`
}

// BlobConfig holds the Azure Blob Storage results target
type BlobConfig struct {
	ConnectionString string `yaml:"connection_string"`
	Container        string `yaml:"container"`
}

// Flags holds command-line flags
type Flags struct {
	ConfigFile string
	Verbose    bool
	Processors int
	TestPath   string
	NameFilter string
	CaseFilter string
	Include    []string
	Exclude    []string
	TestCases  bool
	ShowPlan   bool
	ShowAll    bool
	FailFast   bool
	Publish    bool
	Fresh      bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		TestPath:       DefaultTestPath,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		ClassTimeout:   DefaultClassTimeout,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     "3306",
			Username: "root",
			Name:     DefaultResultsDatabase,
			Prefix:   "testing",
		},
		Blob:  BlobConfig{Container: DefaultBlobContainer},
		Flags: Flags{Processors: DefaultProcessors},
	}
	// Copy defaults so callers may append safely
	cfg.PathsToIgnore = append([]string(nil), DefaultPathsToIgnore...)
	cfg.SourceSuffixes = append([]string(nil), DefaultSourceSuffixes...)
	cfg.Command = append([]string(nil), DefaultCommand...)
	return cfg
}

// Load creates a config from defaults, the config file, the environment and flags
func Load(flags Flags) (*Config, error) {
	cfg := New()
	if err := cfg.Apply(flags); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply layers the config file, .env and environment, then flags onto c
func (c *Config) Apply(flags Flags) error {
	path := flags.ConfigFile
	required := path != ""
	if path == "" {
		path = filepath.Join(c.ProjectPath, DefaultConfigFile)
	}
	if err := c.LoadFile(path); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	c.LoadEnv()

	c.Flags = flags
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	return nil
}

// LoadFile merges a YAML config file into c. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads the project .env file, if any, and applies the DB_* and
// STP_BLOB_* variables
func (c *Config) LoadEnv() {
	envPath := filepath.Join(c.ProjectPath, ".env")
	if err := godotenv.Load(envPath); err != nil {
		// .env file might not exist, that's okay - use environment variables
		_ = err
	}

	setFromEnv(&c.Database.Host, "DB_HOST")
	setFromEnv(&c.Database.Port, "DB_PORT")
	setFromEnv(&c.Database.Username, "DB_USERNAME")
	setFromEnv(&c.Database.Password, "DB_PASSWORD")
	setFromEnv(&c.Database.Name, "DB_DATABASE")
	setFromEnv(&c.Database.Prefix, "DB_DATABASE_PREFIX")
	setFromEnv(&c.Blob.ConnectionString, "STP_BLOB_CONNECTION_STRING")
	setFromEnv(&c.Blob.Container, "STP_BLOB_CONTAINER")
	if v := os.Getenv("STP_PROCESSORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Processors = n
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// GetTestPath returns the test path, using flag if provided
func (c *Config) GetTestPath() string {
	if c.Flags.TestPath != "" {
		// If TestPath is provided, make it relative to the project path if it's not absolute
		if filepath.IsAbs(c.Flags.TestPath) {
			return c.Flags.TestPath
		}
		return filepath.Join(c.ProjectPath, c.Flags.TestPath)
	}

	if filepath.IsAbs(c.TestPath) {
		return c.TestPath
	}
	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetOutputPath returns the full path to the output JSON file (under project so run and failures use the same file).
// Resolves to an absolute path so run and failures always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// IncludeCategories returns the configured categories followed by the flag ones
func (c *Config) IncludeCategories() []string {
	return append(append([]string(nil), c.Include...), c.Flags.Include...)
}

// ExcludeCategories returns the configured categories followed by the flag ones
func (c *Config) ExcludeCategories() []string {
	return append(append([]string(nil), c.Exclude...), c.Flags.Exclude...)
}

// GetDatabaseName returns the database name for a worker
func (c *Config) GetDatabaseName(workerID int) string {
	prefix := c.Database.Prefix
	if prefix == "" {
		prefix = "testing"
	}
	return fmt.Sprintf("%s_%d", prefix, workerID)
}

// ServerDSN returns the MySQL DSN without a database selected
func (c *Config) ServerDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true", c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port)
}

// ResultsDSN returns the MySQL DSN of the results database
func (c *Config) ResultsDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name)
}
