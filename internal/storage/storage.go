package storage

import (
	"time"

	"github.com/google/uuid"

	"stp/internal/config"
	"stp/internal/domain"
)

// Storage persists and loads test run results (e.g. for the failures viewer).
type Storage interface {
	Save(results []domain.ClassResult, failures []domain.TestFailure, duration time.Duration, workers int) error
	Load() (*domain.TestResultsOutput, error)
	// SaveOutput writes the full output (e.g. after partial re-run updates).
	SaveOutput(output *domain.TestResultsOutput) error
}

// NewOutput assembles the persisted form of a run under a fresh run id
func NewOutput(results []domain.ClassResult, failures []domain.TestFailure, duration time.Duration, workers int) *domain.TestResultsOutput {
	meta := domain.TestResultsMeta{
		RunID:           uuid.NewString(),
		TotalClasses:    len(results),
		Duration:        duration.String(),
		DurationSeconds: duration.Seconds(),
		Workers:         workers,
		Timestamp:       time.Now().Format(time.RFC3339),
	}

	cases := make([]domain.CaseResult, 0)
	for _, r := range results {
		if r.Success {
			meta.PassedClasses++
		} else {
			meta.FailedClasses++
		}
		for _, c := range r.Cases {
			switch c.Outcome {
			case domain.OutcomePassed:
				meta.PassedCases++
			case domain.OutcomeFailed:
				meta.FailedCases++
			case domain.OutcomeSkipped:
				meta.SkippedCases++
			}
		}
		cases = append(cases, r.Cases...)
	}
	// class-level failures have no case line of their own
	if len(failures) > meta.FailedCases {
		meta.FailedCases = len(failures)
	}
	meta.TotalCases = meta.PassedCases + meta.FailedCases + meta.SkippedCases

	if failures == nil {
		failures = make([]domain.TestFailure, 0)
	}
	return &domain.TestResultsOutput{Meta: meta, Cases: cases, Details: failures}
}

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
