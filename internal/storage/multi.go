package storage

import (
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"stp/internal/domain"
)

// MultiStorage fans every save out to all sinks. The first sink is primary:
// Load reads from it only.
type MultiStorage struct {
	sinks []Storage
}

// NewMultiStorage combines sinks; primary must come first
func NewMultiStorage(primary Storage, others ...Storage) *MultiStorage {
	return &MultiStorage{sinks: append([]Storage{primary}, others...)}
}

// Save builds the output once so every sink records the same run id
func (m *MultiStorage) Save(results []domain.ClassResult, failures []domain.TestFailure, duration time.Duration, workers int) error {
	return m.SaveOutput(NewOutput(results, failures, duration, workers))
}

// SaveOutput writes output to every sink concurrently. All sinks are
// attempted and their errors joined.
func (m *MultiStorage) SaveOutput(output *domain.TestResultsOutput) error {
	var g errgroup.Group
	errs := make([]error, len(m.sinks))
	for i, sink := range m.sinks {
		i, sink := i, sink
		g.Go(func() error {
			errs[i] = sink.SaveOutput(output)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Load reads from the primary sink
func (m *MultiStorage) Load() (*domain.TestResultsOutput, error) {
	return m.sinks[0].Load()
}
