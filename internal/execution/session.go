package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stp/internal/catalog"
	"stp/internal/domain"
)

// Session runs a whole selection: assembly setups, the classes, then assembly
// teardowns in reverse order. Without an invoker the test host owns the
// assembly hooks and the session only drives the executor.
type Session struct {
	executor Executor
	invoker  Invoker
}

// NewSession creates a new Session. invoker may be nil.
func NewSession(executor Executor, invoker Invoker) *Session {
	return &Session{executor: executor, invoker: invoker}
}

// Run executes every active class of cat. Classes of an assembly whose setup
// failed are reported as failed without running. The returned error carries
// assembly teardown failures only; case failures are results.
func (s *Session) Run(ctx context.Context, cat *catalog.Catalog) ([]domain.ClassResult, time.Duration, error) {
	start := time.Now()
	active := cat.Active()
	if s.invoker == nil {
		results, _, err := s.executor.Execute(ctx, cat, active)
		return results, time.Since(start), err
	}

	hooks := cat.AssemblyHooks()
	failedSetup := make(map[string]error)
	for _, h := range hooks {
		for _, ref := range h.Setup {
			if err := s.invoker.Invoke(ctx, ref); err != nil {
				failedSetup[h.Assembly] = fmt.Errorf("assembly setup %s: %w", ref.QualifiedName(), err)
				logrus.WithField("assembly", h.Assembly).WithError(err).Warn("assembly setup failed")
				break
			}
		}
	}

	var (
		runnable []*catalog.TestClassUnit
		results  []domain.ClassResult
	)
	for _, class := range active {
		if err, failed := failedSetup[class.Assembly()]; failed {
			results = append(results, failedClass(cat, class, err))
			continue
		}
		runnable = append(runnable, class)
	}

	executed, _, err := s.executor.Execute(ctx, cat, runnable)
	results = append(results, executed...)

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		for j := len(hooks[i].Teardown) - 1; j >= 0; j-- {
			ref := hooks[i].Teardown[j]
			if err := s.invoker.Invoke(ctx, ref); err != nil {
				errs = append(errs, fmt.Errorf("assembly teardown %s: %w", ref.QualifiedName(), err))
			}
		}
	}

	return results, time.Since(start), errors.Join(errs...)
}

func failedClass(cat *catalog.Catalog, class *catalog.TestClassUnit, err error) domain.ClassResult {
	result := domain.ClassResult{Class: class.Name(), Error: err}
	for _, tc := range cat.EffectiveCases(class) {
		result.Cases = append(result.Cases, domain.CaseResult{
			Class:   class.Name(),
			Name:    tc.Method(),
			Outcome: domain.OutcomeFailed,
			Message: err.Error(),
		})
	}
	return result
}
