package domain

// LifecycleRole is one of the six hook points a method may be bound to
type LifecycleRole int

const (
	RoleAssemblySetup LifecycleRole = iota
	RoleAssemblyTeardown
	RoleClassSetup
	RoleClassTeardown
	RoleCaseSetup
	RoleCaseTeardown

	// LifecycleRoleCount is the number of lifecycle roles
	LifecycleRoleCount
)

// LifecycleRoles lists every role in declaration order
var LifecycleRoles = []LifecycleRole{
	RoleAssemblySetup,
	RoleAssemblyTeardown,
	RoleClassSetup,
	RoleClassTeardown,
	RoleCaseSetup,
	RoleCaseTeardown,
}

func (r LifecycleRole) String() string {
	switch r {
	case RoleAssemblySetup:
		return "assembly-setup"
	case RoleAssemblyTeardown:
		return "assembly-teardown"
	case RoleClassSetup:
		return "class-setup"
	case RoleClassTeardown:
		return "class-teardown"
	case RoleCaseSetup:
		return "case-setup"
	case RoleCaseTeardown:
		return "case-teardown"
	}
	return "unknown"
}
