package catalog

import (
	"time"

	"stp/internal/domain"
)

// ClassID indexes a class within the catalog that discovered it
type ClassID int

// TestCaseUnit is a single discovered test case
type TestCaseUnit struct {
	name       string
	method     string
	enabled    bool
	class      ClassID
	categories []string
	ignored    bool
	timeout    time.Duration
	ref        domain.MethodRef
}

// Name returns the qualified case name (Class.Method)
func (c *TestCaseUnit) Name() string { return c.name }

// Method returns the bare method name
func (c *TestCaseUnit) Method() string { return c.method }

// Enabled returns the case's own flag. Use Catalog.Effective to include the owning class.
func (c *TestCaseUnit) Enabled() bool { return c.enabled }

// SetEnabled changes only this case. The owning class and siblings are untouched.
func (c *TestCaseUnit) SetEnabled(v bool) { c.enabled = v }

// Class returns the id of the owning class
func (c *TestCaseUnit) Class() ClassID { return c.class }

// Categories returns the category tags declared on the method
func (c *TestCaseUnit) Categories() []string { return c.categories }

// Ignored reports whether the method carried an ignore marker
func (c *TestCaseUnit) Ignored() bool { return c.ignored }

// Timeout returns the declared time limit, zero when none
func (c *TestCaseUnit) Timeout() time.Duration { return c.timeout }

// Ref returns the method handle supplied by the binding
func (c *TestCaseUnit) Ref() domain.MethodRef { return c.ref }

// HasCategory reports whether the case carries tag. The comparison ignores case
// and accepts either the full tag or its last dotted segment (Tag.Function ~ Function).
func (c *TestCaseUnit) HasCategory(tag string) bool {
	for _, cat := range c.categories {
		if categoryMatches(cat, tag) {
			return true
		}
	}
	return false
}

// State is the run state of a class derived from its flags
type State int

const (
	// StateActive: class enabled and at least one case enabled
	StateActive State = iota
	// StateSuspended: class disabled
	StateSuspended
	// StateEmpty: no cases were discovered
	StateEmpty
	// StateIdle: class enabled but every case individually disabled
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateEmpty:
		return "empty"
	case StateIdle:
		return "idle"
	}
	return "unknown"
}

// TestClassUnit is a discovered test class owning its test cases
type TestClassUnit struct {
	id          ClassID
	name        string
	assembly    string
	description string
	enabled     bool
	ignored     bool
	cases       []*TestCaseUnit
	lifecycle   [domain.LifecycleRoleCount]domain.MethodRef
}

// ID returns the class id within its catalog
func (c *TestClassUnit) ID() ClassID { return c.id }

// Name returns the fully qualified class name
func (c *TestClassUnit) Name() string { return c.name }

// Assembly returns the unit that owns the class's assembly-level hooks
func (c *TestClassUnit) Assembly() string { return c.assembly }

// Description returns the free-text description, if any
func (c *TestClassUnit) Description() string { return c.description }

// Enabled returns the class flag
func (c *TestClassUnit) Enabled() bool { return c.enabled }

// Ignored reports whether the class carried an ignore marker
func (c *TestClassUnit) Ignored() bool { return c.ignored }

// Cases returns the owned cases in discovery order
func (c *TestClassUnit) Cases() []*TestCaseUnit { return c.cases }

// ActiveCases counts owned cases whose own flag is enabled
func (c *TestClassUnit) ActiveCases() int {
	n := 0
	for _, tc := range c.cases {
		if tc.enabled {
			n++
		}
	}
	return n
}

// SetEnabled sets the class flag. Disabling also disables every owned case;
// enabling leaves the cases as they are.
func (c *TestClassUnit) SetEnabled(v bool) {
	c.enabled = v
	if v {
		return
	}
	for _, tc := range c.cases {
		tc.enabled = false
	}
}

// LifecycleMethod returns the method bound to role, or false when none was discovered
func (c *TestClassUnit) LifecycleMethod(role domain.LifecycleRole) (domain.MethodRef, bool) {
	if role < 0 || role >= domain.LifecycleRoleCount {
		return nil, false
	}
	ref := c.lifecycle[role]
	return ref, ref != nil
}

// State derives the run state from the class and case flags
func (c *TestClassUnit) State() State {
	switch {
	case len(c.cases) == 0:
		return StateEmpty
	case !c.enabled:
		return StateSuspended
	case c.ActiveCases() == 0:
		return StateIdle
	}
	return StateActive
}
