package execution

import (
	"stp/internal/catalog"
	"stp/internal/domain"
)

// StepKind identifies what a plan step invokes
type StepKind int

const (
	StepClassSetup StepKind = iota
	StepCaseSetup
	StepCase
	StepCaseTeardown
	StepClassTeardown
)

func (k StepKind) String() string {
	switch k {
	case StepClassSetup:
		return "class-setup"
	case StepCaseSetup:
		return "case-setup"
	case StepCase:
		return "case"
	case StepCaseTeardown:
		return "case-teardown"
	case StepClassTeardown:
		return "class-teardown"
	}
	return "unknown"
}

// Step is one invocation of a class plan. Case is set for the case-scoped kinds.
type Step struct {
	Kind StepKind
	Ref  domain.MethodRef
	Case *catalog.TestCaseUnit
}

// BuildPlan orders the invocations for one class: class setup, then setup,
// case and teardown for every effective case, then class teardown. Roles
// without a bound method produce no step. A class that is not active has an
// empty plan.
func BuildPlan(cat *catalog.Catalog, class *catalog.TestClassUnit) []Step {
	if class.State() != catalog.StateActive {
		return nil
	}

	var steps []Step
	if ref, ok := class.LifecycleMethod(domain.RoleClassSetup); ok {
		steps = append(steps, Step{Kind: StepClassSetup, Ref: ref})
	}

	caseSetup, hasSetup := class.LifecycleMethod(domain.RoleCaseSetup)
	caseTeardown, hasTeardown := class.LifecycleMethod(domain.RoleCaseTeardown)
	for _, tc := range cat.EffectiveCases(class) {
		if hasSetup {
			steps = append(steps, Step{Kind: StepCaseSetup, Ref: caseSetup, Case: tc})
		}
		steps = append(steps, Step{Kind: StepCase, Ref: tc.Ref(), Case: tc})
		if hasTeardown {
			steps = append(steps, Step{Kind: StepCaseTeardown, Ref: caseTeardown, Case: tc})
		}
	}

	if ref, ok := class.LifecycleMethod(domain.RoleClassTeardown); ok {
		steps = append(steps, Step{Kind: StepClassTeardown, Ref: ref})
	}
	return steps
}
