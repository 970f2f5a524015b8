package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stp/internal/catalog"
	"stp/internal/domain"
)

func planSummary(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Kind.String() + " " + s.Ref.QualifiedName()
	}
	return out
}

func TestBuildPlan(t *testing.T) {
	t.Run("full lifecycle", func(t *testing.T) {
		cat, class := blobCatalog()
		assert.Equal(t, []string{
			"class-setup Blob.Init",
			"case-setup Blob.Before",
			"case Blob.Get",
			"case-teardown Blob.After",
			"case-setup Blob.Before",
			"case Blob.Put",
			"case-teardown Blob.After",
			"class-teardown Blob.Cleanup",
		}, planSummary(BuildPlan(cat, class)))
	})

	t.Run("disabled case is left out", func(t *testing.T) {
		cat, class := blobCatalog()
		class.Cases()[0].SetEnabled(false)

		steps := BuildPlan(cat, class)
		assert.Len(t, steps, 5)
		assert.Equal(t, "Put", steps[2].Case.Method())
	})

	t.Run("inactive class has no plan", func(t *testing.T) {
		cat, class := blobCatalog()
		class.SetEnabled(false)
		assert.Empty(t, BuildPlan(cat, class))

		class.SetEnabled(true)
		assert.Equal(t, catalog.StateIdle, class.State())
		assert.Empty(t, BuildPlan(cat, class))
	})

	t.Run("absent roles produce no steps", func(t *testing.T) {
		cat := catalog.Build([]domain.TypeDescriptor{
			testClass("Share", "CLITest", testCase("Share", "Create"), testCase("Share", "Delete")),
		})
		assert.Equal(t, []string{"case Share.Create", "case Share.Delete"}, planSummary(BuildPlan(cat, cat.Classes()[0])))
	})
}
