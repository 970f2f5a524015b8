package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stp/internal/catalog"
	"stp/internal/config"
	"stp/internal/domain"
)

func fourClassCatalog() *catalog.Catalog {
	var types []domain.TypeDescriptor
	for _, name := range []string{"Container", "Blob", "Queue", "Table"} {
		types = append(types, testClass(name, "CLITest", testCase(name, "Create"), testCase(name, "Delete")))
	}
	return catalog.Build(types)
}

func TestRoundRobinScheduler(t *testing.T) {
	classes := fourClassCatalog().Classes()
	s := NewRoundRobinScheduler()

	lanes := s.Schedule(classes, 3)
	require.Len(t, lanes, 3)
	assert.Equal(t, []*catalog.TestClassUnit{classes[0], classes[3]}, lanes[0])
	assert.Equal(t, []*catalog.TestClassUnit{classes[1]}, lanes[1])
	assert.Equal(t, []*catalog.TestClassUnit{classes[2]}, lanes[2])

	lanes = s.Schedule(classes, 0)
	require.Len(t, lanes, 1)
	assert.Len(t, lanes[0], 4)
}

func TestWorkerPool_Execute(t *testing.T) {
	cat := fourClassCatalog()
	cfg := config.New()
	cfg.Processors = 2

	runner := &stubRunner{}
	pool := NewWorkerPool(cfg, runner, NewRoundRobinScheduler(), nil)
	progress := &progressRecorder{}
	pool.SetProgress(progress)

	results, _, err := pool.Execute(context.Background(), cat, cat.Active())
	require.NoError(t, err)

	assert.Len(t, results, 4)
	assert.Equal(t, map[string]int{"Container": 1, "Blob": 2, "Queue": 1, "Table": 2}, runner.ran)
	require.Len(t, progress.updates, 4)
	assert.Equal(t, "4:8:0", progress.updates[3])
	assert.True(t, progress.finished)
}

func TestWorkerPool_ExecuteWithFailures(t *testing.T) {
	cat := fourClassCatalog()
	cfg := config.New()
	cfg.Processors = 1

	t.Run("without fail-fast every class runs", func(t *testing.T) {
		runner := &stubRunner{fail: map[string]bool{"Container": true}}
		pool := NewWorkerPool(cfg, runner, NewRoundRobinScheduler(), nil)

		results, _, err := pool.ExecuteWithOptions(context.Background(), cat, cat.Active(), false)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("fail-fast stops after the first failure", func(t *testing.T) {
		runner := &stubRunner{fail: map[string]bool{"Blob": true}}
		pool := NewWorkerPool(cfg, runner, NewRoundRobinScheduler(), nil)

		results, _, err := pool.ExecuteWithOptions(context.Background(), cat, cat.Active(), true)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Container", results[0].Class)
		assert.Equal(t, "Blob", results[1].Class)
		assert.NotContains(t, runner.ran, "Queue")
	})

	t.Run("fail-fast flag drives Execute", func(t *testing.T) {
		cfg := config.New()
		cfg.Processors = 1
		cfg.Flags.FailFast = true
		runner := &stubRunner{fail: map[string]bool{"Container": true}}
		pool := NewWorkerPool(cfg, runner, NewRoundRobinScheduler(), nil)

		results, _, _ := pool.Execute(context.Background(), cat, cat.Active())
		assert.Len(t, results, 1)
	})
}

func TestWorkerPool_NothingToRun(t *testing.T) {
	pool := NewWorkerPool(config.New(), &stubRunner{}, NewRoundRobinScheduler(), nil)
	results, duration, err := pool.Execute(context.Background(), catalog.Build(nil), nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, duration)
}
