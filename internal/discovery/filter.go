package discovery

import (
	"path/filepath"
	"strings"

	"stp/internal/catalog"
)

// Filter narrows a catalog to the classes and cases a run should execute.
// It only ever disables: it never re-enables something discovery turned off.
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName disables classes whose name does not match pattern. The
// pattern is tried against both the simple and the qualified class name.
// Supports patterns like "*Blob*" or "Functional.Blob.GetBlob"
func (f *Filter) FilterByName(cat *catalog.Catalog, pattern string) int {
	if pattern == "" {
		return 0
	}
	disabled := 0
	for _, cl := range cat.Classes() {
		if MatchName(simpleName(cl.Name()), pattern) || MatchName(cl.Name(), pattern) {
			continue
		}
		if cl.Enabled() {
			disabled++
		}
		cl.SetEnabled(false)
	}
	return disabled
}

// FilterByCase disables cases whose method name does not match pattern
func (f *Filter) FilterByCase(cat *catalog.Catalog, pattern string) int {
	if pattern == "" {
		return 0
	}
	disabled := 0
	for _, tc := range cat.Cases() {
		if MatchName(tc.Method(), pattern) {
			continue
		}
		if tc.Enabled() {
			disabled++
		}
		tc.SetEnabled(false)
	}
	return disabled
}

// FilterByCategory disables cases lacking every include tag (when include is
// set) or carrying any exclude tag. Classes are left enabled.
func (f *Filter) FilterByCategory(cat *catalog.Catalog, include, exclude []string) int {
	if len(include) == 0 && len(exclude) == 0 {
		return 0
	}
	disabled := 0
	for _, tc := range cat.Cases() {
		if selectedByCategory(tc, include, exclude) {
			continue
		}
		if tc.Enabled() {
			disabled++
		}
		tc.SetEnabled(false)
	}
	return disabled
}

func selectedByCategory(tc *catalog.TestCaseUnit, include, exclude []string) bool {
	for _, tag := range exclude {
		if tc.HasCategory(tag) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, tag := range include {
		if tc.HasCategory(tag) {
			return true
		}
	}
	return false
}

// MatchName reports whether name matches pattern using wildcard matching.
// Without wildcards the pattern matches as a substring.
func MatchName(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	// Try to match using filepath.Match (supports * and ? wildcards)
	matched, err := filepath.Match(pattern, name)
	if err == nil && matched {
		return true
	}

	// If pattern contains wildcards but filepath.Match didn't match,
	// try a more flexible substring match for patterns like "*Blob*"
	if strings.Contains(pattern, "*") {
		hasNonEmptyPart := false
		for _, part := range strings.Split(pattern, "*") {
			if part == "" {
				continue
			}
			hasNonEmptyPart = true
			if !strings.Contains(name, part) {
				return false
			}
		}
		return hasNonEmptyPart
	}

	// If no wildcards, do a simple contains check
	if !strings.Contains(pattern, "?") {
		return strings.Contains(name, pattern)
	}
	return false
}
