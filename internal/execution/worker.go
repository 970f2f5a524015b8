package execution

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stp/internal/catalog"
	"stp/internal/config"
	"stp/internal/domain"
	"stp/internal/parser"
)

// Progress receives pool progress after every finished class
type Progress interface {
	Update(completed, passed, failed int)
	Finish()
}

// WorkerPool manages a pool of workers for parallel class execution
type WorkerPool struct {
	config    *config.Config
	runner    ClassRunner
	scheduler Scheduler
	progress  Progress
	parser    parser.Parser
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner ClassRunner, scheduler Scheduler, p parser.Parser) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
		parser:    p,
	}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

// Execute executes classes in parallel using worker pool, honoring the fail-fast flag.
func (wp *WorkerPool) Execute(ctx context.Context, cat *catalog.Catalog, classes []*catalog.TestClassUnit) ([]domain.ClassResult, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, cat, classes, wp.config.Flags.FailFast)
}

// ExecuteWithOptions executes classes with optional fail-fast (stop on first failure).
// Each worker runs the lane the scheduler assigned to it, in order. With
// fail-fast, the first failed class cancels in-flight classes and results
// finished after it are dropped.
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, cat *catalog.Catalog, classes []*catalog.TestClassUnit, failFast bool) ([]domain.ClassResult, time.Duration, error) {
	if len(classes) == 0 {
		return nil, 0, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerCount := wp.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}
	lanes := wp.scheduler.Schedule(classes, workerCount)
	results := make(chan domain.ClassResult, len(classes))

	var mu sync.Mutex
	var completedClasses int
	var passedCases, failedCases int
	var seenFailure bool
	startTime := time.Now()

	var wg sync.WaitGroup
	for i, lane := range lanes {
		if len(lane) == 0 {
			continue
		}
		wg.Add(1)
		go func(workerID int, lane []*catalog.TestClassUnit) {
			defer wg.Done()
			for _, class := range lane {
				if failFast && ctx.Err() != nil {
					return
				}
				result := wp.runner.RunClass(ctx, cat, class, workerID)

				mu.Lock()
				if failFast && seenFailure {
					mu.Unlock()
					return
				}
				results <- result
				completedClasses++
				p, f := wp.counts(result)
				passedCases += p
				failedCases += f
				if wp.progress != nil {
					wp.progress.Update(completedClasses, passedCases, failedCases)
				}
				if failFast && !result.Success {
					seenFailure = true
					logrus.WithField("class", result.Class).Debug("fail-fast: stopping workers")
					cancel()
				}
				mu.Unlock()
			}
		}(i+1, lane)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []domain.ClassResult
	for result := range results {
		allResults = append(allResults, result)
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), nil
}

func (wp *WorkerPool) counts(result domain.ClassResult) (passed, failed int) {
	if wp.parser != nil {
		return wp.parser.ParseTestCounts(result)
	}
	if len(result.Cases) > 0 {
		return result.Counts()
	}
	if result.Success {
		return 1, 0
	}
	return 0, 1
}
