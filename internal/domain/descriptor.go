package domain

// MethodRef is an opaque handle to a discovered method. Only the binding that
// produced it knows how to call it.
type MethodRef interface {
	QualifiedName() string
}

// MethodDescriptor describes one declared method of a type
type MethodDescriptor struct {
	Name    string
	Markers Markers
	Ref     MethodRef
}

// TypeDescriptor describes one loadable type as seen by a binding
type TypeDescriptor struct {
	Name     string // fully qualified
	Assembly string // unit that owns assembly-level hooks (assembly, project, package)
	Base     string // declared base type, resolved by the binding when possible
	Markers  Markers
	Methods  []MethodDescriptor
}

// SourceMethod references a method declared in a source file
type SourceMethod struct {
	Class  string
	Name   string
	File   string
	Line   int
	Static bool
}

// QualifiedName returns Class.Name
func (m SourceMethod) QualifiedName() string {
	return m.Class + "." + m.Name
}
