// Package catalog builds the in-memory model of discovered test classes and
// their cases, and owns the enable/disable rules a runner selects against.
//
// A Catalog is built once from binding-supplied type descriptors and then
// mutated only through SetEnabled on classes and cases. Nothing here is safe
// for concurrent mutation; callers serialize selection before execution.
package catalog

import (
	"strings"

	"stp/internal/domain"
)

// Catalog is the ordered set of discovered test classes
type Catalog struct {
	classes []*TestClassUnit
	byName  map[string]ClassID
}

// Build scans types in order and returns a catalog of every type carrying a
// test-class marker. Types without the marker are skipped.
func Build(types []domain.TypeDescriptor) *Catalog {
	cat := &Catalog{byName: make(map[string]ClassID)}
	for _, t := range types {
		if !t.Markers.Has(domain.Marker.IsTestClass) {
			continue
		}
		id := ClassID(len(cat.classes))
		cat.classes = append(cat.classes, newClassUnit(id, t))
		if _, exists := cat.byName[t.Name]; !exists {
			cat.byName[t.Name] = id
		}
	}
	return cat
}

func newClassUnit(id ClassID, t domain.TypeDescriptor) *TestClassUnit {
	unit := &TestClassUnit{
		id:       id,
		name:     t.Name,
		assembly: t.Assembly,
		ignored:  t.Markers.Has(domain.Marker.IsIgnore),
		cases:    newCaseUnits(id, t),
	}
	if d, ok := t.Markers.Last(domain.MarkerDescription); ok {
		unit.description = d.Value
	}

	// a later method declaring the same role replaces an earlier one
	for _, m := range t.Methods {
		for _, marker := range m.Markers {
			if role, ok := marker.LifecycleRole(); ok {
				unit.lifecycle[role] = m.Ref
			}
		}
	}

	// default is all enabled
	unit.enabled = len(unit.cases) > 0
	if unit.ignored {
		unit.SetEnabled(false)
	}
	return unit
}

func newCaseUnits(class ClassID, t domain.TypeDescriptor) []*TestCaseUnit {
	var cases []*TestCaseUnit
	for _, m := range t.Methods {
		if !m.Markers.Has(domain.Marker.IsTestCase) {
			continue
		}
		tc := &TestCaseUnit{
			name:       t.Name + "." + m.Name,
			method:     m.Name,
			class:      class,
			categories: m.Markers.Values(domain.MarkerCategory),
			ignored:    m.Markers.Has(domain.Marker.IsIgnore),
			ref:        m.Ref,
		}
		if marker, ok := m.Markers.Last(domain.MarkerTimeout); ok {
			tc.timeout, _ = marker.Timeout()
		}
		tc.enabled = !tc.ignored
		cases = append(cases, tc)
	}
	return cases
}

// Classes returns every class in discovery order
func (c *Catalog) Classes() []*TestClassUnit { return c.classes }

// Len returns the number of classes
func (c *Catalog) Len() int { return len(c.classes) }

// Class returns the class with the given id, or nil
func (c *Catalog) Class(id ClassID) *TestClassUnit {
	if id < 0 || int(id) >= len(c.classes) {
		return nil
	}
	return c.classes[id]
}

// ClassOf returns the owning class of a case
func (c *Catalog) ClassOf(tc *TestCaseUnit) *TestClassUnit {
	return c.Class(tc.class)
}

// Lookup finds a class by qualified name. When several types share a name the
// first discovered wins.
func (c *Catalog) Lookup(name string) (*TestClassUnit, bool) {
	id, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.classes[id], true
}

// Cases returns every case of every class in discovery order
func (c *Catalog) Cases() []*TestCaseUnit {
	var cases []*TestCaseUnit
	for _, cl := range c.classes {
		cases = append(cases, cl.cases...)
	}
	return cases
}

// Effective reports whether a case will run: its own flag and its class's flag are both set
func (c *Catalog) Effective(tc *TestCaseUnit) bool {
	cl := c.ClassOf(tc)
	return cl != nil && cl.enabled && tc.enabled
}

// EffectiveCases returns the cases of class that will run
func (c *Catalog) EffectiveCases(cl *TestClassUnit) []*TestCaseUnit {
	if !cl.enabled {
		return nil
	}
	var cases []*TestCaseUnit
	for _, tc := range cl.cases {
		if tc.enabled {
			cases = append(cases, tc)
		}
	}
	return cases
}

// Active returns the classes in StateActive
func (c *Catalog) Active() []*TestClassUnit {
	var active []*TestClassUnit
	for _, cl := range c.classes {
		if cl.State() == StateActive {
			active = append(active, cl)
		}
	}
	return active
}

// Stats summarizes the catalog's current enable state
type Stats struct {
	Classes        int
	ActiveClasses  int
	Cases          int
	EffectiveCases int
}

// Stats counts classes and cases
func (c *Catalog) Stats() Stats {
	var s Stats
	s.Classes = len(c.classes)
	for _, cl := range c.classes {
		s.Cases += len(cl.cases)
		if cl.State() == StateActive {
			s.ActiveClasses++
			s.EffectiveCases += cl.ActiveCases()
		}
	}
	return s
}

// AssemblyHooks holds the distinct assembly-level hooks of one assembly
type AssemblyHooks struct {
	Assembly string
	Setup    []domain.MethodRef
	Teardown []domain.MethodRef
}

// AssemblyHooks collects assembly setup and teardown methods bound by active
// classes, deduplicated by qualified name, grouped per assembly in discovery order.
func (c *Catalog) AssemblyHooks() []AssemblyHooks {
	var hooks []AssemblyHooks
	index := make(map[string]int)
	seen := make(map[string]bool)

	for _, cl := range c.Active() {
		i, ok := index[cl.assembly]
		if !ok {
			i = len(hooks)
			index[cl.assembly] = i
			hooks = append(hooks, AssemblyHooks{Assembly: cl.assembly})
		}
		if ref, ok := cl.LifecycleMethod(domain.RoleAssemblySetup); ok && !seen["s:"+ref.QualifiedName()] {
			seen["s:"+ref.QualifiedName()] = true
			hooks[i].Setup = append(hooks[i].Setup, ref)
		}
		if ref, ok := cl.LifecycleMethod(domain.RoleAssemblyTeardown); ok && !seen["t:"+ref.QualifiedName()] {
			seen["t:"+ref.QualifiedName()] = true
			hooks[i].Teardown = append(hooks[i].Teardown, ref)
		}
	}
	return hooks
}

func categoryMatches(tag, want string) bool {
	if strings.EqualFold(tag, want) {
		return true
	}
	if i := strings.LastIndex(tag, "."); i >= 0 {
		return strings.EqualFold(tag[i+1:], want)
	}
	return false
}
