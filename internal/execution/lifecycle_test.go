package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stp/internal/catalog"
	"stp/internal/discovery"
	"stp/internal/domain"
)

func outcomes(result domain.ClassResult) map[string]domain.Outcome {
	out := make(map[string]domain.Outcome)
	for _, c := range result.Cases {
		out[c.Name] = c.Outcome
	}
	return out
}

func TestLifecycleRunner_RunClass(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("all pass", func(t *testing.T) {
		cat, class := blobCatalog()
		inv := &recordingInvoker{}

		result := NewLifecycleRunner(inv).RunClass(ctx, cat, class, 3)

		assert.True(t, result.Success)
		assert.Equal(t, 3, result.WorkerID)
		assert.Equal(t, []string{
			"Blob.Init",
			"Blob.Before", "Blob.Get", "Blob.After",
			"Blob.Before", "Blob.Put", "Blob.After",
			"Blob.Cleanup",
		}, inv.Calls())
		assert.Equal(t, map[string]domain.Outcome{"Get": domain.OutcomePassed, "Put": domain.OutcomePassed}, outcomes(result))
	})

	t.Run("class setup failure fails every case and still tears down", func(t *testing.T) {
		cat, class := blobCatalog()
		inv := &recordingInvoker{errs: map[string]error{"Blob.Init": boom}}

		result := NewLifecycleRunner(inv).RunClass(ctx, cat, class, 1)

		assert.False(t, result.Success)
		assert.Equal(t, []string{"Blob.Init", "Blob.Cleanup"}, inv.Calls())
		require.Len(t, result.Cases, 2)
		for _, c := range result.Cases {
			assert.Equal(t, domain.OutcomeFailed, c.Outcome)
			assert.Contains(t, c.Message, "class setup Blob.Init: boom")
		}
	})

	t.Run("case setup failure skips the case body but not its teardown", func(t *testing.T) {
		cat, class := blobCatalog()
		inv := &recordingInvoker{errs: map[string]error{"Blob.Before": boom}}

		result := NewLifecycleRunner(inv).RunClass(ctx, cat, class, 1)

		assert.Equal(t, []string{
			"Blob.Init",
			"Blob.Before", "Blob.After",
			"Blob.Before", "Blob.After",
			"Blob.Cleanup",
		}, inv.Calls())
		for _, c := range result.Cases {
			assert.Equal(t, domain.OutcomeFailed, c.Outcome)
			assert.Contains(t, c.Message, "case setup")
		}
	})

	t.Run("case failure is isolated", func(t *testing.T) {
		cat, class := blobCatalog()
		inv := &recordingInvoker{errs: map[string]error{"Blob.Get": boom}}

		result := NewLifecycleRunner(inv).RunClass(ctx, cat, class, 1)

		assert.False(t, result.Success)
		assert.Equal(t, map[string]domain.Outcome{"Get": domain.OutcomeFailed, "Put": domain.OutcomePassed}, outcomes(result))
		assert.Equal(t, "boom", result.Cases[0].Message)
	})

	t.Run("case teardown failure fails a passed case", func(t *testing.T) {
		cat, class := blobCatalog()
		inv := &recordingInvoker{errs: map[string]error{"Blob.After": boom}}

		result := NewLifecycleRunner(inv).RunClass(ctx, cat, class, 1)

		for _, c := range result.Cases {
			assert.Equal(t, domain.OutcomeFailed, c.Outcome)
			assert.Contains(t, c.Message, "case teardown Blob.After")
		}
	})

	t.Run("class teardown failure is a class error", func(t *testing.T) {
		cat, class := blobCatalog()
		inv := &recordingInvoker{errs: map[string]error{"Blob.Cleanup": boom}}

		result := NewLifecycleRunner(inv).RunClass(ctx, cat, class, 1)

		assert.False(t, result.Success)
		assert.ErrorIs(t, result.Error, boom)
		passed, failed := result.Counts()
		assert.Equal(t, 2, passed)
		assert.Equal(t, 0, failed)
	})

	t.Run("timeout fails the case", func(t *testing.T) {
		cat := catalog.Build([]domain.TypeDescriptor{
			testClass("Slow", "CLITest",
				testCase("Slow", "Hangs", domain.Marker{Kind: domain.MarkerTimeout, Value: "20"}),
				testCase("Slow", "Quick"),
			),
		})
		inv := &recordingInvoker{block: map[string]bool{"Slow.Hangs": true}}

		result := NewLifecycleRunner(inv).RunClass(ctx, cat, cat.Classes()[0], 1)

		require.Len(t, result.Cases, 2)
		assert.Equal(t, domain.OutcomeFailed, result.Cases[0].Outcome)
		assert.Contains(t, result.Cases[0].Message, "exceeded timeout of 20ms")
		assert.Equal(t, domain.OutcomePassed, result.Cases[1].Outcome)
	})
}

type shareSuite struct {
	created []string
}

func (s *shareSuite) SetupTest() { s.created = nil }
func (s *shareSuite) TestCreate(ctx context.Context) { s.created = append(s.created, "share") }
func (s *shareSuite) TestDelete() error { return errors.New("share not found") }
func (s *shareSuite) TearDownTest() {}

func TestLifecycleRunner_ReflectSuite(t *testing.T) {
	cat := catalog.Build(discovery.Reflect(&shareSuite{}))
	require.Equal(t, 1, cat.Len())

	result := NewLifecycleRunner(NewReflectInvoker()).RunClass(context.Background(), cat, cat.Classes()[0], 1)

	assert.Equal(t, map[string]domain.Outcome{"TestCreate": domain.OutcomePassed, "TestDelete": domain.OutcomeFailed}, outcomes(result))
	assert.Equal(t, "share not found", result.Cases[1].Message)
}

func TestReflectInvoker_RejectsForeignRefs(t *testing.T) {
	err := NewReflectInvoker().Invoke(context.Background(), fakeRef("Blob.Get"))
	assert.ErrorIs(t, err, ErrNotInvocable)
}
