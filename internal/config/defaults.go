package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultTestPath is the default test path
	DefaultTestPath = "."
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "test-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultProcessors is the default number of processors
	DefaultProcessors = 4
	// DefaultConfigFile is looked up in the project directory
	DefaultConfigFile = "stp.yaml"
	// DefaultClassTimeout bounds one test host process
	DefaultClassTimeout = 2 * time.Hour
	// DefaultBlobContainer receives published results
	DefaultBlobContainer = "stp-results"
	// DefaultResultsDatabase holds the run and case tables
	DefaultResultsDatabase = "stp_results"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"bin",
	"obj",
	"packages",
	"node_modules",
	"TestResults",
	"storage",
}

// DefaultSourceSuffixes are the file suffixes scanned for test classes
var DefaultSourceSuffixes = []string{".cs"}

// DefaultCommand runs the selected cases of one class. Placeholders:
// {project} test path, {filter} case filter, {class} qualified class name.
var DefaultCommand = []string{
	"dotnet", "test", "{project}",
	"--no-build",
	"--filter", "{filter}",
	"--logger", "console;verbosity=normal",
}
