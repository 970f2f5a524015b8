package discovery

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"stp/internal/domain"
)

// Optional capabilities a Go suite may implement to attach markers the method
// names cannot express.
type (
	Ignorer interface {
		Ignored() bool
	}
	Describer interface {
		Description() string
	}
	// Categorizer returns category tags keyed by test method name
	Categorizer interface {
		Categories() map[string][]string
	}
	CaseIgnorer interface {
		IgnoredCases() []string
	}
	TimeoutProvider interface {
		Timeouts() map[string]time.Duration
	}
)

// method names bound to lifecycle roles, following the testify suite convention
var reflectRoles = map[string]domain.MarkerKind{
	"SetupAssembly":    domain.MarkerAssemblySetup,
	"TearDownAssembly": domain.MarkerAssemblyTeardown,
	"SetupSuite":       domain.MarkerClassSetup,
	"TearDownSuite":    domain.MarkerClassTeardown,
	"SetupTest":        domain.MarkerCaseSetup,
	"TearDownTest":     domain.MarkerCaseTeardown,
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// ReflectMethod is a bound method of a registered Go suite
type ReflectMethod struct {
	Suite  string
	Name   string
	fn     reflect.Value
	hasCtx bool
	hasErr bool
}

// QualifiedName returns Suite.Name
func (m ReflectMethod) QualifiedName() string {
	return m.Suite + "." + m.Name
}

// Call invokes the method. A panic is returned as an error.
func (m ReflectMethod) Call(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", m.QualifiedName(), r)
		}
	}()

	var in []reflect.Value
	if m.hasCtx {
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}
	out := m.fn.Call(in)
	if m.hasErr && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// Reflect describes Go suite values. Every suite is a test class named after
// its package path and type. Methods qualify when they take nothing or a
// context.Context and return nothing or an error.
func Reflect(suites ...any) []domain.TypeDescriptor {
	types := make([]domain.TypeDescriptor, 0, len(suites))
	for _, s := range suites {
		types = append(types, describeSuite(s))
	}
	return types
}

func describeSuite(s any) domain.TypeDescriptor {
	v := reflect.ValueOf(s)
	t := v.Type()
	name, pkg := suiteName(t)

	td := domain.TypeDescriptor{
		Name:     name,
		Assembly: pkg,
		Markers:  domain.Markers{{Kind: domain.MarkerTestClass}},
	}
	if ig, ok := s.(Ignorer); ok && ig.Ignored() {
		td.Markers = append(td.Markers, domain.Marker{Kind: domain.MarkerIgnore})
	}
	if d, ok := s.(Describer); ok {
		td.Markers = append(td.Markers, domain.Marker{Kind: domain.MarkerDescription, Value: d.Description()})
	}

	var (
		categories map[string][]string
		ignored    = make(map[string]bool)
		timeouts   map[string]time.Duration
	)
	if c, ok := s.(Categorizer); ok {
		categories = c.Categories()
	}
	if ci, ok := s.(CaseIgnorer); ok {
		for _, n := range ci.IgnoredCases() {
			ignored[n] = true
		}
	}
	if tp, ok := s.(TimeoutProvider); ok {
		timeouts = tp.Timeouts()
	}

	// reflect orders methods by name
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		hasCtx, hasErr, ok := callable(m.Type)
		if !ok {
			continue
		}

		var markers domain.Markers
		if kind, isHook := reflectRoles[m.Name]; isHook {
			markers = append(markers, domain.Marker{Kind: kind})
		} else if strings.HasPrefix(m.Name, "Test") {
			markers = append(markers, domain.Marker{Kind: domain.MarkerTestCase})
			for _, c := range categories[m.Name] {
				markers = append(markers, domain.Marker{Kind: domain.MarkerCategory, Value: c})
			}
			if ignored[m.Name] {
				markers = append(markers, domain.Marker{Kind: domain.MarkerIgnore})
			}
			if d, ok := timeouts[m.Name]; ok {
				markers = append(markers, domain.Marker{Kind: domain.MarkerTimeout, Value: strconv.FormatInt(d.Milliseconds(), 10)})
			}
		}

		td.Methods = append(td.Methods, domain.MethodDescriptor{
			Name:    m.Name,
			Markers: markers,
			Ref: ReflectMethod{
				Suite:  name,
				Name:   m.Name,
				fn:     v.Method(i),
				hasCtx: hasCtx,
				hasErr: hasErr,
			},
		})
	}
	return td
}

// callable checks for (recv), (recv, ctx) inputs and (), (error) outputs
func callable(mt reflect.Type) (hasCtx, hasErr, ok bool) {
	switch mt.NumIn() {
	case 1:
	case 2:
		if mt.In(1) != contextType {
			return false, false, false
		}
		hasCtx = true
	default:
		return false, false, false
	}

	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) != errorType {
			return false, false, false
		}
		hasErr = true
	default:
		return false, false, false
	}
	return hasCtx, hasErr, true
}

func suiteName(t reflect.Type) (name, pkg string) {
	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	pkg = base.PkgPath()
	if pkg == "" {
		return base.String(), ""
	}
	return pkg + "." + base.Name(), pkg
}
