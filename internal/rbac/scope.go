package rbac

// IsDepartmentScoped reports whether the role only sees its own department.
func IsDepartmentScoped(role Role) bool {
	return role == RoleManager || role == RoleTeamLeader
}

// Scope is the data visibility of one caller. The zero value permits
// nothing; build it with ScopeFor or AllDepartments.
type Scope struct {
	all          bool
	departmentID string
}

// ScopeFor is the single place department scoping is decided. A scoped role
// without a department sees nothing.
func ScopeFor(role Role, departmentID string) Scope {
	if IsDepartmentScoped(role) {
		return Scope{departmentID: departmentID}
	}
	return AllDepartments()
}

// AllDepartments is the scope of unscoped roles and internal tooling.
func AllDepartments() Scope {
	return Scope{all: true}
}

func (s Scope) Scoped() bool {
	return !s.all
}

func (s Scope) DepartmentID() string {
	return s.departmentID
}

// Permits reports whether a record in departmentID is visible.
func (s Scope) Permits(departmentID string) bool {
	if s.all {
		return true
	}
	return s.departmentID != "" && s.departmentID == departmentID
}
