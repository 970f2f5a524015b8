package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stp/internal/catalog"
	"stp/internal/config"
	"stp/internal/domain"
	"stp/internal/parser"
)

// CommandRunner runs one test class per external test host process
type CommandRunner struct {
	config *config.Config
	parser parser.Parser
}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner(cfg *config.Config, p parser.Parser) *CommandRunner {
	return &CommandRunner{config: cfg, parser: p}
}

// RunClass executes the effective cases of class in one host process
func (r *CommandRunner) RunClass(ctx context.Context, cat *catalog.Catalog, class *catalog.TestClassUnit, workerID int) domain.ClassResult {
	cases := cat.EffectiveCases(class)
	if len(cases) == 0 {
		// an empty filter would run the whole project
		return domain.ClassResult{Class: class.Name(), WorkerID: workerID, Error: fmt.Errorf("class %s has no effective cases", class.Name())}
	}
	return r.run(ctx, class.Name(), CaseFilter(cases), workerID)
}

// RunCase executes a single case by qualified class and method name
func (r *CommandRunner) RunCase(ctx context.Context, class, method string, workerID int) domain.ClassResult {
	return r.run(ctx, class, "FullyQualifiedName="+escapeFilter(class+"."+method), workerID)
}

func (r *CommandRunner) run(ctx context.Context, class, filter string, workerID int) domain.ClassResult {
	start := time.Now()
	result := domain.ClassResult{Class: class, WorkerID: workerID}

	args := r.Command(class, filter)
	if len(args) == 0 {
		result.Error = errors.New("no test command configured")
		return result
	}

	if r.config.ClassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ClassTimeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	// the test host spawns children that may keep the output pipe open after a kill
	cmd.WaitDelay = 5 * time.Second

	// Set environment variables
	cmd.Env = os.Environ() // Start with current environment
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("DB_DATABASE=%s", r.config.GetDatabaseName(workerID)),
		fmt.Sprintf("STP_WORKER_ID=%d", workerID),
	)

	// Set working directory
	cmd.Dir = r.config.ProjectPath

	logrus.WithFields(logrus.Fields{"class": class, "worker": workerID}).Debugf("running %s", strings.Join(args, " "))
	output, err := cmd.CombinedOutput()

	result.Output = string(output)
	result.Success = err == nil
	if err != nil {
		result.Error = err
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Errorf("class exceeded timeout of %s: %w", r.config.ClassTimeout, err)
		}
	}
	if r.parser != nil {
		result.Cases = r.parser.ParseCaseResults(class, result.Output)
		// the host exits 0 when the filter selects nothing
		if len(result.Cases) == 0 && result.Error == nil {
			result.Success = false
			result.Error = fmt.Errorf("no test matched filter %s", filter)
		}
	}
	result.Duration = time.Since(start)
	return result
}

// Command expands the configured command template for one class
func (r *CommandRunner) Command(class, filter string) []string {
	replacer := strings.NewReplacer(
		"{project}", r.config.GetTestPath(),
		"{filter}", filter,
		"{class}", class,
	)
	args := make([]string, len(r.config.Command))
	for i, arg := range r.config.Command {
		args[i] = replacer.Replace(arg)
	}
	return args
}

// CaseFilter builds a VSTest filter expression selecting exactly cases
func CaseFilter(cases []*catalog.TestCaseUnit) string {
	parts := make([]string, len(cases))
	for i, tc := range cases {
		parts[i] = "FullyQualifiedName=" + escapeFilter(tc.Name())
	}
	return strings.Join(parts, "|")
}

// filter operators are escaped with a backslash
var filterEscaper = strings.NewReplacer(
	`\`, `\\`,
	`(`, `\(`,
	`)`, `\)`,
	`&`, `\&`,
	`|`, `\|`,
	`=`, `\=`,
	`!`, `\!`,
	`~`, `\~`,
)

func escapeFilter(s string) string {
	return filterEscaper.Replace(s)
}
