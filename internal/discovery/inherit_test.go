package discovery

import (
	"testing"

	"stp/internal/domain"
)

func methodNames(td domain.TypeDescriptor) []string {
	names := make([]string, len(td.Methods))
	for i, m := range td.Methods {
		names[i] = m.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlatten(t *testing.T) {
	src := `namespace Management.Storage.ScenarioTest
{
    public class TestBase
    {
        [ClassInitialize()]
        public static void TestClassInitialize(TestContext ctx) { }

        [TestInitialize()]
        public void InitAgent() { }

        [TestCleanup()]
        public void CleanupAgent() { }
    }

    [TestClass]
    public class CLIBlobFunc : TestBase
    {
        [TestCleanup()]
        public void CleanupAgent() { }

        [TestMethod]
        public void GetBlob() { }
    }

    [TestClass]
    public class CLIBlobPerf : CLIBlobFunc
    {
        [TestMethod]
        public void UploadBlock() { }
    }
}
`
	types := Flatten(NewParser().Parse(src, "Blob.cs", "CLITest"))
	if len(types) != 3 {
		t.Fatalf("expected 3 types, got %d", len(types))
	}

	tests := []struct {
		name     string
		typeName string
		expected []string
	}{
		{"base keeps own methods", "Management.Storage.ScenarioTest.TestBase", []string{"TestClassInitialize", "InitAgent", "CleanupAgent"}},
		{"derived replaces same-name base method and drops static", "Management.Storage.ScenarioTest.CLIBlobFunc", []string{"InitAgent", "CleanupAgent", "GetBlob"}},
		{"grandchild inherits transitively", "Management.Storage.ScenarioTest.CLIBlobPerf", []string{"InitAgent", "CleanupAgent", "GetBlob", "UploadBlock"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := findType(types, tt.typeName)
			if td == nil {
				t.Fatalf("%s not found", tt.typeName)
			}
			if got := methodNames(*td); !equalStrings(got, tt.expected) {
				t.Errorf("methods = %v, want %v", got, tt.expected)
			}
		})
	}

	t.Run("derived declaration is the one kept", func(t *testing.T) {
		td := findType(types, "Management.Storage.ScenarioTest.CLIBlobFunc")
		cleanup := findMethod(td, "CleanupAgent")
		if got := cleanup.Ref.QualifiedName(); got != "Management.Storage.ScenarioTest.CLIBlobFunc.CleanupAgent" {
			t.Errorf("expected derived cleanup, got %s", got)
		}
		init := findMethod(td, "InitAgent")
		if got := init.Ref.QualifiedName(); got != "Management.Storage.ScenarioTest.TestBase.InitAgent" {
			t.Errorf("expected inherited init, got %s", got)
		}
	})

	t.Run("class markers are not inherited", func(t *testing.T) {
		perf := findType(types, "Management.Storage.ScenarioTest.CLIBlobPerf")
		if n := len(perf.Markers); n != 1 {
			t.Errorf("expected only the own test-class marker, got %d markers", n)
		}
	})
}

func TestFlatten_UnresolvedAndCyclicBases(t *testing.T) {
	types := []domain.TypeDescriptor{
		{Name: "A.First", Base: "Second", Methods: []domain.MethodDescriptor{{Name: "One"}}},
		{Name: "A.Second", Base: "First", Methods: []domain.MethodDescriptor{{Name: "Two"}}},
		{Name: "A.Third", Base: "System.Object", Methods: []domain.MethodDescriptor{{Name: "Three"}}},
	}

	out := Flatten(types)

	if got := methodNames(out[2]); !equalStrings(got, []string{"Three"}) {
		t.Errorf("unresolved base should leave methods alone, got %v", got)
	}
	// each side of the cycle sees the other once and stops
	for _, td := range out[:2] {
		if len(td.Methods) == 0 || len(td.Methods) > 2 {
			t.Errorf("%s: unexpected methods %v", td.Name, methodNames(td))
		}
	}
	if len(types[0].Methods) != 1 {
		t.Error("input descriptors must not be modified")
	}
}

func TestFlatten_PrefersSameNamespace(t *testing.T) {
	types := []domain.TypeDescriptor{
		{Name: "Other.TestBase", Methods: []domain.MethodDescriptor{{Name: "Wrong"}}},
		{Name: "Mine.TestBase", Methods: []domain.MethodDescriptor{{Name: "Right"}}},
		{Name: "Mine.Derived", Base: "TestBase"},
	}

	out := Flatten(types)
	if got := methodNames(out[2]); !equalStrings(got, []string{"Right"}) {
		t.Errorf("expected same-namespace base, got %v", got)
	}
}
