// Package scenario runs Go scenario suites under go test with the same
// catalog, selection and lifecycle rules the stp CLI applies to MSTest classes.
//
// A suite is any value whose exported methods follow the naming convention:
// Test* methods are cases, SetupSuite/TearDownSuite run once per suite,
// SetupTest/TearDownTest around every case, and SetupAssembly/TearDownAssembly
// once per package across all suites of a Run. Methods may take a
// context.Context and may return an error.
package scenario

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"stp/internal/catalog"
	"stp/internal/config"
	"stp/internal/discovery"
	"stp/internal/domain"
	"stp/internal/execution"
)

// Capabilities a suite may implement to attach metadata its method names
// cannot express
type (
	Ignorer         = discovery.Ignorer
	Describer       = discovery.Describer
	Categorizer     = discovery.Categorizer
	CaseIgnorer     = discovery.CaseIgnorer
	TimeoutProvider = discovery.TimeoutProvider
)

// Options selects and schedules the suites of a Run
type Options struct {
	// Workers runs suites in parallel; zero or one runs them in order
	Workers int
	// Filter keeps suites whose type name matches the wildcard pattern
	Filter string
	// Case keeps cases whose method name matches the wildcard pattern
	Case    string
	Include []string
	Exclude []string
	// FailFast stops scheduling suites after the first failed one
	FailFast bool
}

// Report counts the outcome of a Run
type Report struct {
	Suites  int
	Passed  int
	Failed  int
	Skipped int
}

// Run executes suites with default options and reports every case as a subtest
func Run(t *testing.T, suites ...any) Report {
	t.Helper()
	return RunWithOptions(t, Options{}, suites...)
}

// RunWithOptions executes the selected suites and reports each one as a
// subtest holding one subtest per case. Cases that are disabled or ignored
// are reported as skipped.
func RunWithOptions(t *testing.T, opts Options, suites ...any) Report {
	t.Helper()
	o := execute(context.Background(), opts, suites...)
	if o.err != nil {
		t.Errorf("assembly hooks: %v", o.err)
	}

	var report Report
	for _, class := range o.cat.Classes() {
		result, ran := o.results[class.Name()]
		report.Suites++
		t.Run(shortName(class.Name()), func(t *testing.T) {
			if !ran {
				report.Skipped += len(class.Cases())
				t.Skip(suiteSkipReason(class))
			}
			if result.Error != nil {
				t.Error(result.Error)
			}
			outcomes := make(map[string]domain.CaseResult, len(result.Cases))
			for _, cr := range result.Cases {
				outcomes[cr.Name] = cr
			}
			for _, tc := range class.Cases() {
				cr, ok := outcomes[tc.Method()]
				t.Run(tc.Method(), func(t *testing.T) {
					switch {
					case !ok:
						report.Skipped++
						t.Skip(skipReason(tc))
					case cr.Outcome == domain.OutcomeFailed:
						report.Failed++
						t.Error(cr.Message)
					default:
						report.Passed++
					}
				})
			}
		})
	}
	return report
}

type outcome struct {
	cat     *catalog.Catalog
	results map[string]domain.ClassResult
	err     error
}

// execute builds the catalog from suites, applies the selection and runs the
// session in process
func execute(ctx context.Context, opts Options, suites ...any) outcome {
	cat := catalog.Build(discovery.Reflect(suites...))
	filter := discovery.NewFilter()
	filter.FilterByName(cat, opts.Filter)
	filter.FilterByCase(cat, opts.Case)
	filter.FilterByCategory(cat, opts.Include, opts.Exclude)

	cfg := config.New()
	cfg.Processors = max(opts.Workers, 1)
	cfg.Flags.FailFast = opts.FailFast

	invoker := execution.NewReflectInvoker()
	pool := execution.NewWorkerPool(cfg, execution.NewLifecycleRunner(invoker), execution.NewRoundRobinScheduler(), nil)
	results, _, err := execution.NewSession(pool, invoker).Run(ctx, cat)

	byName := make(map[string]domain.ClassResult, len(results))
	for _, r := range results {
		byName[r.Class] = r
	}
	return outcome{cat: cat, results: byName, err: err}
}

// suiteSkipReason explains why a suite has no result. An active suite
// without one was dropped after a fail-fast stop.
func suiteSkipReason(class *catalog.TestClassUnit) string {
	if state := class.State(); state != catalog.StateActive {
		return fmt.Sprintf("suite %s", state)
	}
	return "not run (fail-fast)"
}

func skipReason(tc *catalog.TestCaseUnit) string {
	if tc.Ignored() {
		return "ignored"
	}
	if !tc.Enabled() {
		return "not selected"
	}
	return "not run"
}

func shortName(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}
