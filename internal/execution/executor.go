package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stp/internal/catalog"
	"stp/internal/domain"
)

// ErrNotInvocable is returned for method refs an invoker cannot call
var ErrNotInvocable = errors.New("method is not invocable in process")

// Executor executes classes and returns results
type Executor interface {
	Execute(ctx context.Context, cat *catalog.Catalog, classes []*catalog.TestClassUnit) ([]domain.ClassResult, time.Duration, error)
}

// ClassRunner runs the effective cases of one class on a worker
type ClassRunner interface {
	RunClass(ctx context.Context, cat *catalog.Catalog, class *catalog.TestClassUnit, workerID int) domain.ClassResult
}

// Invoker calls a bound method
type Invoker interface {
	Invoke(ctx context.Context, ref domain.MethodRef) error
}

// Callable is a method ref that can call itself, such as discovery.ReflectMethod
type Callable interface {
	domain.MethodRef
	Call(ctx context.Context) error
}

// ReflectInvoker invokes refs produced by the Go reflection binding
type ReflectInvoker struct{}

// NewReflectInvoker creates a new ReflectInvoker
func NewReflectInvoker() *ReflectInvoker {
	return &ReflectInvoker{}
}

// Invoke calls ref, which must implement Callable
func (ReflectInvoker) Invoke(ctx context.Context, ref domain.MethodRef) error {
	c, ok := ref.(Callable)
	if !ok {
		return fmt.Errorf("%s: %w", ref.QualifiedName(), ErrNotInvocable)
	}
	return c.Call(ctx)
}
