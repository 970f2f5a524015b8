package execution

import "stp/internal/catalog"

// Scheduler distributes classes across workers
type Scheduler interface {
	Schedule(classes []*catalog.TestClassUnit, workerCount int) [][]*catalog.TestClassUnit
}

// RoundRobinScheduler distributes classes evenly across workers
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule distributes classes evenly across workers using round-robin
func (s *RoundRobinScheduler) Schedule(classes []*catalog.TestClassUnit, workerCount int) [][]*catalog.TestClassUnit {
	if workerCount <= 0 {
		workerCount = 1
	}

	distribution := make([][]*catalog.TestClassUnit, workerCount)
	for i := range distribution {
		distribution[i] = make([]*catalog.TestClassUnit, 0)
	}

	for i, class := range classes {
		workerIndex := i % workerCount
		distribution[workerIndex] = append(distribution[workerIndex], class)
	}

	return distribution
}
