package navigation

import (
	"encoding/json"
	"testing"

	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(role rbac.Role) *Session {
	return &Session{Role: role}
}

func TestResolve(t *testing.T) {
	table := rbac.DefaultTable()

	tests := []struct {
		name    string
		session *Session
		path    string
		want    Decision
	}{
		{"anonymous is sent to login", nil, "/admin/employees", Decision{Unauthenticated, LoginPath}},
		{"anonymous on login stays", nil, "/login", Decision{Unauthenticated, ""}},
		{"anonymous on login with trailing slash stays", nil, "/login/", Decision{Unauthenticated, ""}},
		{"unknown role is treated as anonymous", session("wizard"), "/wizard/dashboard", Decision{Unauthenticated, LoginPath}},

		{"matching role and section", session(rbac.RoleManager), "/manager/leaves", Decision{AuthenticatedMatching, ""}},
		{"matching role deep link", session(rbac.RoleManager), "/manager/leaves/42?tab=history", Decision{AuthenticatedMatching, ""}},
		{"matching role without section", session(rbac.RoleManager), "/manager", Decision{AuthenticatedMatching, "/manager/dashboard"}},
		{"matching role, section not granted", session(rbac.RoleEmployee), "/employee/employees", Decision{AuthenticatedMatching, "/employee/dashboard"}},

		{"employee on admin employees lands on dashboard", session(rbac.RoleEmployee), "/admin/employees", Decision{AuthenticatedMismatched, "/employee/dashboard"}},
		{"mismatch keeps permitted suffix", session(rbac.RoleManager), "/hr/leaves", Decision{AuthenticatedMismatched, "/manager/leaves"}},
		{"mismatch keeps deep suffix and query", session(rbac.RoleHR), "/admin/employees/17?view=full", Decision{AuthenticatedMismatched, "/hr/employees/17?view=full"}},
		{"root goes to dashboard", session(rbac.RoleFinance), "/", Decision{AuthenticatedMismatched, "/finance/dashboard"}},
		{"login while signed in goes to dashboard", session(rbac.RoleAdmin), "/login", Decision{AuthenticatedMismatched, "/admin/dashboard"}},
		{"roleless section path is prefixed", session(rbac.RoleEmployee), "/leaves", Decision{AuthenticatedMismatched, "/employee/leaves"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(table, tt.session, tt.path))
		})
	}
}

func TestResolve_RedirectTargetIsStable(t *testing.T) {
	table := rbac.DefaultTable()
	paths := []string{"/", "/admin/payroll", "/hr/recruitment?x=1", "/team-leader/leaves", "/nowhere/at/all"}

	for _, role := range rbac.Roles() {
		for _, p := range paths {
			first := Resolve(table, session(role), p)
			require.NotEqual(t, Unauthenticated, first.State)
			if !first.Redirects() {
				continue
			}
			second := Resolve(table, session(role), first.Redirect)
			assert.Equal(t, AuthenticatedMatching, second.State, "%s %s -> %s", role, p, first.Redirect)
			assert.False(t, second.Redirects(), "%s %s -> %s -> %s", role, p, first.Redirect, second.Redirect)
		}
	}
}

func TestResolve_DotSegmentsAreResolved(t *testing.T) {
	table := rbac.DefaultTable()

	tests := []struct {
		name string
		role rbac.Role
		path string
		want Decision
	}{
		{"climbing out of a section", rbac.RoleEmployee, "/admin/leaves/../../x", Decision{AuthenticatedMismatched, "/employee/dashboard"}},
		{"climbing into an ungranted section", rbac.RoleManager, "/hr/leaves/../../admin/settings", Decision{AuthenticatedMismatched, "/manager/dashboard"}},
		{"dot segments inside a granted section", rbac.RoleHR, "/admin/employees/./17/../18", Decision{AuthenticatedMismatched, "/hr/employees/18"}},
		{"encoded dots", rbac.RoleEmployee, "/admin/leaves/%2e%2e/%2e%2e/payslips", Decision{AuthenticatedMismatched, "/employee/payslips"}},
		{"climbing above root", rbac.RoleFinance, "/../../..", Decision{AuthenticatedMismatched, "/finance/dashboard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(table, session(tt.role), tt.path)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got.Redirect, "..")
		})
	}
}

func TestResolve_EmptyRoleHasNowhereToLand(t *testing.T) {
	table, err := rbac.NewTable("v", map[rbac.Role][]rbac.NavEntry{rbac.RoleRecruiter: {}})
	require.NoError(t, err)

	got := Resolve(table, session(rbac.RoleRecruiter), "/recruiter/dashboard")
	assert.Equal(t, Decision{Unauthenticated, LoginPath}, got)
}

func TestEnforcer_UsesActivePolicy(t *testing.T) {
	policy := rbac.NewPolicy(nil)
	e := NewEnforcer(policy)

	assert.False(t, e.Enforce(session(rbac.RoleHR), "/hr/employees").Redirects())

	slim, err := rbac.NewTable("slim", map[rbac.Role][]rbac.NavEntry{
		rbac.RoleHR: {{Segment: rbac.SegmentDashboard, Label: "Dashboard", Access: rbac.AccessView}},
	})
	require.NoError(t, err)
	policy.Swap(slim)

	assert.Equal(t, "/hr/dashboard", e.Enforce(session(rbac.RoleHR), "/hr/employees").Redirect)
}

func TestDecision_JSON(t *testing.T) {
	out, err := json.Marshal(Decision{State: AuthenticatedMismatched, Redirect: "/hr/dashboard"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"authenticated_mismatched","redirect":"/hr/dashboard"}`, string(out))
}
