package domain

import (
	"strconv"
	"time"
)

// MarkerKind is one of the closed set of tags a binding may attach to a type or method
type MarkerKind int

const (
	MarkerUnknown MarkerKind = iota
	MarkerTestClass
	MarkerIgnore
	MarkerTestCase
	MarkerAssemblySetup
	MarkerAssemblyTeardown
	MarkerClassSetup
	MarkerClassTeardown
	MarkerCaseSetup
	MarkerCaseTeardown
	MarkerCategory
	MarkerDescription
	MarkerTimeout
)

var markerNames = map[MarkerKind]string{
	MarkerUnknown:          "unknown",
	MarkerTestClass:        "test-class",
	MarkerIgnore:           "ignore",
	MarkerTestCase:         "test-case",
	MarkerAssemblySetup:    "assembly-setup",
	MarkerAssemblyTeardown: "assembly-teardown",
	MarkerClassSetup:       "class-setup",
	MarkerClassTeardown:    "class-teardown",
	MarkerCaseSetup:        "case-setup",
	MarkerCaseTeardown:     "case-teardown",
	MarkerCategory:         "category",
	MarkerDescription:      "description",
	MarkerTimeout:          "timeout",
}

func (k MarkerKind) String() string {
	if name, ok := markerNames[k]; ok {
		return name
	}
	return "unknown"
}

// Marker is a tag translated from the host's native metadata (attribute, method name, interface)
type Marker struct {
	Kind  MarkerKind
	Value string // category name, description text or timeout in milliseconds
}

// IsTestClass reports whether the marker declares a test class
func (m Marker) IsTestClass() bool { return m.Kind == MarkerTestClass }

// IsTestCase reports whether the marker declares a test case
func (m Marker) IsTestCase() bool { return m.Kind == MarkerTestCase }

// IsIgnore reports whether the marker excludes its target from runs
func (m Marker) IsIgnore() bool { return m.Kind == MarkerIgnore }

// LifecycleRole returns the hook role the marker binds, if any
func (m Marker) LifecycleRole() (LifecycleRole, bool) {
	switch m.Kind {
	case MarkerAssemblySetup:
		return RoleAssemblySetup, true
	case MarkerAssemblyTeardown:
		return RoleAssemblyTeardown, true
	case MarkerClassSetup:
		return RoleClassSetup, true
	case MarkerClassTeardown:
		return RoleClassTeardown, true
	case MarkerCaseSetup:
		return RoleCaseSetup, true
	case MarkerCaseTeardown:
		return RoleCaseTeardown, true
	}
	return 0, false
}

// Timeout parses a timeout marker value expressed in milliseconds
func (m Marker) Timeout() (time.Duration, bool) {
	if m.Kind != MarkerTimeout {
		return 0, false
	}
	ms, err := strconv.ParseInt(m.Value, 10, 64)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Markers is a marker list with lookup helpers
type Markers []Marker

// Has reports whether any marker satisfies pred
func (ms Markers) Has(pred func(Marker) bool) bool {
	for _, m := range ms {
		if pred(m) {
			return true
		}
	}
	return false
}

// Values returns the values of all markers of the given kind, in order
func (ms Markers) Values(kind MarkerKind) []string {
	var values []string
	for _, m := range ms {
		if m.Kind == kind {
			values = append(values, m.Value)
		}
	}
	return values
}

// Last returns the last marker of the given kind
func (ms Markers) Last(kind MarkerKind) (Marker, bool) {
	for i := len(ms) - 1; i >= 0; i-- {
		if ms[i].Kind == kind {
			return ms[i], true
		}
	}
	return Marker{}, false
}
