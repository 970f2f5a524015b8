package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup routes logrus to stderr so it never interleaves with listing output
// on stdout. Verbose enables the debug events emitted by discovery, execution
// and storage.
func Setup(verbose bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    false, // keeps the "INFO[0000]" short style
	})

	level := logrus.WarnLevel
	if verbose {
		level = logrus.DebugLevel
	}
	if env := os.Getenv("STP_LOG_LEVEL"); env != "" {
		if parsed, err := logrus.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	logrus.SetLevel(level)
}
