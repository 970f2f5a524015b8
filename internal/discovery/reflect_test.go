package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stp/internal/domain"
)

type blobSuite struct {
	calls []string
}

func (s *blobSuite) SetupSuite() { s.calls = append(s.calls, "SetupSuite") }
func (s *blobSuite) TearDownSuite() error { return errors.New("cleanup failed") }
func (s *blobSuite) SetupTest(ctx context.Context) { s.calls = append(s.calls, "SetupTest") }
func (s *blobSuite) TestGetBlob() { s.calls = append(s.calls, "TestGetBlob") }
func (s *blobSuite) TestUploadBlock(context.Context) {}
func (s *blobSuite) TestPanics() { panic("boom") }
func (s *blobSuite) Helper(name string) {}
func (s *blobSuite) TestWithArgs(n int) {}

func (s *blobSuite) Description() string { return "blob scenarios" }
func (s *blobSuite) Categories() map[string][]string {
	return map[string][]string{"TestGetBlob": {"Tag.Function", "PsTag.GetBlob"}}
}
func (s *blobSuite) IgnoredCases() []string { return []string{"TestPanics"} }
func (s *blobSuite) Timeouts() map[string]time.Duration {
	return map[string]time.Duration{"TestUploadBlock": 2 * time.Second}
}

type ignoredSuite struct{}

func (ignoredSuite) Ignored() bool { return true }
func (ignoredSuite) TestNothing() {}

func TestReflect(t *testing.T) {
	s := &blobSuite{}
	types := Reflect(s, ignoredSuite{})
	if len(types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(types))
	}
	td := types[0]

	t.Run("names the suite after its package", func(t *testing.T) {
		if td.Name != "stp/internal/discovery.blobSuite" {
			t.Errorf("unexpected name %q", td.Name)
		}
		if td.Assembly != "stp/internal/discovery" {
			t.Errorf("unexpected assembly %q", td.Assembly)
		}
	})

	t.Run("skips methods with unsupported signatures", func(t *testing.T) {
		for _, name := range []string{"Helper", "TestWithArgs", "Categories", "Description"} {
			if findMethod(&td, name) != nil {
				t.Errorf("%s should not be described", name)
			}
		}
	})

	t.Run("binds lifecycle names", func(t *testing.T) {
		tests := []struct {
			method string
			kind   domain.MarkerKind
		}{
			{"SetupSuite", domain.MarkerClassSetup},
			{"TearDownSuite", domain.MarkerClassTeardown},
			{"SetupTest", domain.MarkerCaseSetup},
		}
		for _, tt := range tests {
			m := findMethod(&td, tt.method)
			if m == nil || len(m.Markers) != 1 || m.Markers[0].Kind != tt.kind {
				t.Errorf("%s: expected %s marker, got %+v", tt.method, tt.kind, m)
			}
		}
	})

	t.Run("capability markers", func(t *testing.T) {
		if d, ok := td.Markers.Last(domain.MarkerDescription); !ok || d.Value != "blob scenarios" {
			t.Errorf("expected description marker, got %+v", td.Markers)
		}
		get := findMethod(&td, "TestGetBlob")
		if cats := get.Markers.Values(domain.MarkerCategory); len(cats) != 2 {
			t.Errorf("expected 2 categories, got %v", cats)
		}
		if !findMethod(&td, "TestPanics").Markers.Has(domain.Marker.IsIgnore) {
			t.Error("TestPanics should carry an ignore marker")
		}
		upload := findMethod(&td, "TestUploadBlock")
		timeout, ok := upload.Markers.Last(domain.MarkerTimeout)
		if !ok {
			t.Fatal("expected timeout marker")
		}
		if d, _ := timeout.Timeout(); d != 2*time.Second {
			t.Errorf("expected 2s timeout, got %v", d)
		}
		if !types[1].Markers.Has(domain.Marker.IsIgnore) {
			t.Error("ignored suite should carry an ignore marker")
		}
	})

	t.Run("calls bound methods", func(t *testing.T) {
		ctx := context.Background()
		for _, name := range []string{"SetupSuite", "SetupTest", "TestGetBlob"} {
			if err := findMethod(&td, name).Ref.(ReflectMethod).Call(ctx); err != nil {
				t.Errorf("%s: unexpected error %v", name, err)
			}
		}
		if want := []string{"SetupSuite", "SetupTest", "TestGetBlob"}; !equalStrings(s.calls, want) {
			t.Errorf("calls = %v, want %v", s.calls, want)
		}

		err := findMethod(&td, "TearDownSuite").Ref.(ReflectMethod).Call(ctx)
		if err == nil || err.Error() != "cleanup failed" {
			t.Errorf("expected returned error, got %v", err)
		}

		err = findMethod(&td, "TestPanics").Ref.(ReflectMethod).Call(ctx)
		if err == nil || !strings.Contains(err.Error(), "panicked: boom") {
			t.Errorf("expected panic error, got %v", err)
		}
	})
}
