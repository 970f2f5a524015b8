package discovery

import (
	"strings"

	"stp/internal/domain"
)

// Flatten prepends inherited methods to every type whose base was discovered
// in the same scan, mirroring a reflection scan that sees public inherited
// members. Base methods come first so a derived declaration of the same role
// wins; a derived method replaces a base method of the same name. Static base
// methods are not inherited. Class-level markers are never inherited.
func Flatten(types []domain.TypeDescriptor) []domain.TypeDescriptor {
	r := &resolver{
		types:    types,
		byName:   make(map[string]int),
		bySimple: make(map[string][]int),
		done:     make(map[int][]domain.MethodDescriptor),
		visiting: make(map[int]bool),
	}
	for i, t := range types {
		if _, ok := r.byName[t.Name]; !ok {
			r.byName[t.Name] = i
		}
		simple := simpleName(t.Name)
		r.bySimple[simple] = append(r.bySimple[simple], i)
	}

	out := make([]domain.TypeDescriptor, len(types))
	for i, t := range types {
		t.Methods = r.methods(i)
		out[i] = t
	}
	return out
}

type resolver struct {
	types    []domain.TypeDescriptor
	byName   map[string]int
	bySimple map[string][]int
	done     map[int][]domain.MethodDescriptor
	visiting map[int]bool
}

func (r *resolver) methods(i int) []domain.MethodDescriptor {
	if m, ok := r.done[i]; ok {
		return m
	}
	own := r.types[i].Methods
	base, ok := r.base(i)
	if !ok || r.visiting[i] {
		return own
	}

	r.visiting[i] = true
	inherited := r.methods(base)
	delete(r.visiting, i)

	declared := make(map[string]bool, len(own))
	for _, m := range own {
		declared[m.Name] = true
	}

	merged := make([]domain.MethodDescriptor, 0, len(inherited)+len(own))
	for _, m := range inherited {
		if declared[m.Name] || isStatic(m) {
			continue
		}
		merged = append(merged, m)
	}
	merged = append(merged, own...)

	r.done[i] = merged
	return merged
}

// base resolves the declared base of type i: exact qualified name first, then
// by simple name preferring the same namespace.
func (r *resolver) base(i int) (int, bool) {
	t := r.types[i]
	if t.Base == "" {
		return 0, false
	}
	if j, ok := r.byName[t.Base]; ok && j != i {
		return j, true
	}

	candidates := r.bySimple[simpleName(t.Base)]
	ns := namespaceOf(t.Name)
	for _, j := range candidates {
		if j != i && namespaceOf(r.types[j].Name) == ns {
			return j, true
		}
	}
	for _, j := range candidates {
		if j != i {
			return j, true
		}
	}
	return 0, false
}

func isStatic(m domain.MethodDescriptor) bool {
	sm, ok := m.Ref.(domain.SourceMethod)
	return ok && sm.Static
}

func simpleName(name string) string {
	if i := strings.LastIndexAny(name, ".+"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func namespaceOf(name string) string {
	if i := strings.LastIndexAny(name, ".+"); i >= 0 {
		return name[:i]
	}
	return ""
}
