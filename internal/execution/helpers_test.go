package execution

import (
	"context"
	"fmt"
	"sync"

	"stp/internal/catalog"
	"stp/internal/domain"
)

type fakeRef string

func (r fakeRef) QualifiedName() string { return string(r) }

func hook(class, name string, kind domain.MarkerKind) domain.MethodDescriptor {
	return domain.MethodDescriptor{
		Name:    name,
		Markers: domain.Markers{{Kind: kind}},
		Ref:     fakeRef(class + "." + name),
	}
}

func testCase(class, name string, extra ...domain.Marker) domain.MethodDescriptor {
	return domain.MethodDescriptor{
		Name:    name,
		Markers: append(domain.Markers{{Kind: domain.MarkerTestCase}}, extra...),
		Ref:     fakeRef(class + "." + name),
	}
}

func testClass(name, assembly string, methods ...domain.MethodDescriptor) domain.TypeDescriptor {
	return domain.TypeDescriptor{
		Name:     name,
		Assembly: assembly,
		Markers:  domain.Markers{{Kind: domain.MarkerTestClass}},
		Methods:  methods,
	}
}

// blobCatalog has one class with every class and case hook bound
func blobCatalog() (*catalog.Catalog, *catalog.TestClassUnit) {
	cat := catalog.Build([]domain.TypeDescriptor{
		testClass("Blob", "CLITest",
			hook("Blob", "Init", domain.MarkerClassSetup),
			hook("Blob", "Before", domain.MarkerCaseSetup),
			testCase("Blob", "Get"),
			testCase("Blob", "Put"),
			hook("Blob", "After", domain.MarkerCaseTeardown),
			hook("Blob", "Cleanup", domain.MarkerClassTeardown),
		),
	})
	return cat, cat.Classes()[0]
}

// recordingInvoker records every call and fails the names listed in errs.
// Names listed in block wait for cancellation.
type recordingInvoker struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
	block map[string]bool
}

func (r *recordingInvoker) Invoke(ctx context.Context, ref domain.MethodRef) error {
	name := ref.QualifiedName()
	r.mu.Lock()
	r.calls = append(r.calls, name)
	err := r.errs[name]
	blocked := r.block[name]
	r.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (r *recordingInvoker) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// stubRunner reports every class as passed unless listed in fail
type stubRunner struct {
	mu   sync.Mutex
	fail map[string]bool
	ran  map[string]int // class -> worker
}

func (s *stubRunner) RunClass(ctx context.Context, cat *catalog.Catalog, class *catalog.TestClassUnit, workerID int) domain.ClassResult {
	s.mu.Lock()
	if s.ran == nil {
		s.ran = make(map[string]int)
	}
	s.ran[class.Name()] = workerID
	s.mu.Unlock()

	result := domain.ClassResult{Class: class.Name(), WorkerID: workerID, Success: !s.fail[class.Name()]}
	for _, tc := range cat.EffectiveCases(class) {
		outcome := domain.OutcomePassed
		if !result.Success {
			outcome = domain.OutcomeFailed
		}
		result.Cases = append(result.Cases, domain.CaseResult{Class: class.Name(), Name: tc.Method(), Outcome: outcome})
	}
	return result
}

type progressRecorder struct {
	updates  []string
	finished bool
}

func (p *progressRecorder) Update(completed, passed, failed int) {
	p.updates = append(p.updates, fmt.Sprintf("%d:%d:%d", completed, passed, failed))
}

func (p *progressRecorder) Finish() { p.finished = true }
