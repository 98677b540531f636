package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/optitalent/hr-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concretePath fills route parameters with values that exist in the test
// environment.
func (e *testEnv) concretePath(t *testing.T, pattern string) string {
	t.Helper()
	target := testutil.NewAccount(t, e.accounts).InDepartment("engineering").Create()
	return strings.NewReplacer(
		"{employeeID}", e.employees["EMP001"].ID.String(),
		"{accountID}", target.ID.String(),
		"{flow}", "job-description",
	).Replace(pattern)
}

func TestRoutes_TableIsComplete(t *testing.T) {
	env := newTestEnv(t)

	seen := map[string]bool{}
	for _, rt := range env.server.Routes() {
		key := rt.Method + " " + rt.Pattern
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true

		require.NotNil(t, rt.Handler, key)
		if rt.Class == Section {
			assert.NotEmpty(t, rt.Segment, key)
			assert.True(t, rt.Access.Valid(), key)
		}
		if strings.HasPrefix(rt.Pattern, "/api/") && rt.Class == Public {
			assert.True(t, strings.HasPrefix(rt.Pattern, "/api/auth/"), "public api route outside auth: %s", key)
		}
	}
}

func TestRoutes_RejectMissingToken(t *testing.T) {
	env := newTestEnv(t)

	for _, rt := range env.server.Routes() {
		if rt.Class == Public || rt.Class == Optional {
			continue
		}
		t.Run(rt.Method+" "+rt.Pattern, func(t *testing.T) {
			resp := env.do(t, rt.Method, env.concretePath(t, rt.Pattern), map[string]any{})
			testutil.AssertError(t, resp, http.StatusUnauthorized, auth.CodeMissingOrInvalidToken)
		})
	}
}

func TestRoutes_RejectGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	for _, rt := range env.server.Routes() {
		if rt.Class == Public || rt.Class == Optional {
			continue
		}
		t.Run(rt.Method+" "+rt.Pattern, func(t *testing.T) {
			resp := env.doAs(t, "not-a-jwt", rt.Method, env.concretePath(t, rt.Pattern), map[string]any{})
			testutil.AssertError(t, resp, http.StatusUnauthorized, auth.CodeTokenExpiredOrInvalid)
		})
	}
}

// Every section route must agree with the table for every role: the guard
// admits exactly the roles whose menu would show the section.
func TestRoutes_SectionGuardMatchesTable(t *testing.T) {
	env := newTestEnv(t)
	table := rbac.DefaultTable()

	for _, rt := range env.server.Routes() {
		if rt.Class != Section {
			continue
		}
		for _, role := range rbac.Roles() {
			allowed := table.Allows(role, rt.Segment, rt.Access)
			t.Run(rt.Method+" "+rt.Pattern+" as "+string(role), func(t *testing.T) {
				token := env.tokenFor(t, role, "engineering")
				resp := env.doAs(t, token, rt.Method, env.concretePath(t, rt.Pattern), map[string]any{})

				if !allowed {
					testutil.AssertError(t, resp, http.StatusForbidden, auth.CodeForbidden)
					return
				}
				assert.NotEqual(t, http.StatusUnauthorized, resp.Code, resp.ResponseRecorder.Body.String())
				assert.NotEqual(t, http.StatusForbidden, resp.Code, resp.ResponseRecorder.Body.String())
			})
		}
	}
}

func TestRoutes_MenuAgreesWithGuard(t *testing.T) {
	env := newTestEnv(t)

	viewRoutes := map[string]Route{}
	for _, rt := range env.server.Routes() {
		if rt.Class == Section && rt.Method == http.MethodGet && rt.Department == nil {
			viewRoutes[rt.Segment] = rt
		}
	}

	for _, role := range rbac.Roles() {
		t.Run(string(role), func(t *testing.T) {
			token := env.tokenFor(t, role, "engineering")
			menu := env.doAs(t, token, http.MethodGet, "/api/navigation/menu", nil)
			require.Equal(t, http.StatusOK, menu.Code)

			items, _ := menu.Body["items"].([]interface{})
			listed := map[string]bool{}
			for _, raw := range items {
				listed[raw.(map[string]interface{})["segment"].(string)] = true
			}

			for segment, rt := range viewRoutes {
				resp := env.doAs(t, token, rt.Method, rt.Pattern, nil)
				if listed[segment] {
					assert.Equal(t, http.StatusOK, resp.Code, "%s listed but rejected", segment)
				} else {
					assert.Equal(t, http.StatusForbidden, resp.Code, "%s hidden but reachable", segment)
				}
			}
		})
	}
}

func TestRoutes_DirectCallRejectedDespiteHiddenMenu(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, rbac.RoleEmployee, "engineering")

	menu := env.doAs(t, token, http.MethodGet, "/api/navigation/menu", nil)
	require.Equal(t, http.StatusOK, menu.Code)
	assert.NotContains(t, menu.ResponseRecorder.Body.String(), `"segment":"employees"`)

	resp := env.doAs(t, token, http.MethodGet, "/api/employees", nil)
	testutil.AssertError(t, resp, http.StatusForbidden, auth.CodeForbidden)
	assert.JSONEq(t,
		`{"error":{"code":"FORBIDDEN","message":"You do not have access to this resource"}}`,
		resp.ResponseRecorder.Body.String())
}

func TestRoutes_UnknownRoleFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, rbac.Role("wizard"), "")

	for _, path := range []string{"/api/me", "/api/navigation/menu", "/api/employees"} {
		resp := env.doAs(t, token, http.MethodGet, path, nil)
		testutil.AssertError(t, resp, http.StatusForbidden, auth.CodeForbidden)
	}
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/payroll/run", nil)
	testutil.AssertError(t, resp, http.StatusNotFound, CodeResourceNotFound)
}
