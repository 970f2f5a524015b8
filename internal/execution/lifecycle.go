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

// LifecycleRunner runs a class plan in process through an Invoker.
//
// A failed class setup fails every case without running it, a failed case
// setup fails that case without running it, and teardowns run whenever their
// matching setup was attempted.
type LifecycleRunner struct {
	invoker Invoker
}

// NewLifecycleRunner creates a new LifecycleRunner
func NewLifecycleRunner(invoker Invoker) *LifecycleRunner {
	return &LifecycleRunner{invoker: invoker}
}

// RunClass executes the plan of class
func (r *LifecycleRunner) RunClass(ctx context.Context, cat *catalog.Catalog, class *catalog.TestClassUnit, workerID int) domain.ClassResult {
	start := time.Now()
	result := domain.ClassResult{Class: class.Name(), WorkerID: workerID}
	log := logrus.WithFields(logrus.Fields{"class": class.Name(), "worker": workerID})

	var (
		classErr error
		caseErr  error
		current  = -1
	)
	for _, step := range BuildPlan(cat, class) {
		switch step.Kind {
		case StepClassSetup:
			if err := r.invoker.Invoke(ctx, step.Ref); err != nil {
				classErr = fmt.Errorf("class setup %s: %w", step.Ref.QualifiedName(), err)
				log.WithError(err).Debug("class setup failed")
			}

		case StepCaseSetup:
			caseErr = nil
			if classErr != nil {
				continue
			}
			if err := r.invoker.Invoke(ctx, step.Ref); err != nil {
				caseErr = fmt.Errorf("case setup %s: %w", step.Ref.QualifiedName(), err)
			}

		case StepCase:
			cr := domain.CaseResult{Class: class.Name(), Name: step.Case.Method(), Outcome: domain.OutcomePassed}
			caseStart := time.Now()
			switch {
			case classErr != nil:
				cr.Outcome, cr.Message = domain.OutcomeFailed, classErr.Error()
			case caseErr != nil:
				cr.Outcome, cr.Message = domain.OutcomeFailed, caseErr.Error()
			default:
				if err := r.invoke(ctx, step.Ref, step.Case.Timeout()); err != nil {
					cr.Outcome, cr.Message = domain.OutcomeFailed, err.Error()
				}
			}
			cr.Duration = time.Since(caseStart)
			result.Cases = append(result.Cases, cr)
			current = len(result.Cases) - 1
			log.WithFields(logrus.Fields{"case": cr.Name, "outcome": cr.Outcome}).Debug("case finished")

		case StepCaseTeardown:
			if classErr != nil {
				continue
			}
			if err := r.invoker.Invoke(ctx, step.Ref); err != nil && current >= 0 {
				cr := &result.Cases[current]
				if cr.Outcome == domain.OutcomePassed {
					cr.Outcome, cr.Message = domain.OutcomeFailed, fmt.Sprintf("case teardown %s: %v", step.Ref.QualifiedName(), err)
				}
			}
			caseErr = nil

		case StepClassTeardown:
			if err := r.invoker.Invoke(ctx, step.Ref); err != nil {
				result.Error = fmt.Errorf("class teardown %s: %w", step.Ref.QualifiedName(), err)
				log.WithError(err).Debug("class teardown failed")
			}
		}
	}

	_, failed := result.Counts()
	result.Success = failed == 0 && result.Error == nil
	result.Duration = time.Since(start)
	return result
}

// invoke applies a per-case timeout. The invocation is abandoned, not
// stopped, when it ignores the cancelled context.
func (r *LifecycleRunner) invoke(ctx context.Context, ref domain.MethodRef, timeout time.Duration) error {
	if timeout <= 0 {
		return r.invoker.Invoke(ctx, ref)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- r.invoker.Invoke(ctx, ref)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("exceeded timeout of %s: %w", timeout, err)
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("exceeded timeout of %s: %w", timeout, ctx.Err())
	}
}
