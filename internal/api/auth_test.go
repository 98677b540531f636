package api

import (
	"net/http"
	"testing"

	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/optitalent/hr-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T, env *testEnv, identifier, credential string) *testutil.Response {
	t.Helper()
	return env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Identifier: identifier, Credential: credential})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	account := testutil.NewAccount(t, env.accounts).
		WithEmail("lead@optitalent.io").
		WithRole(rbac.RoleTeamLeader).
		InDepartment("engineering").
		Create()

	t.Run("by email", func(t *testing.T) {
		resp := login(t, env, "lead@optitalent.io", testutil.DefaultCredential)
		require.Equal(t, http.StatusOK, resp.Code, resp.ResponseRecorder.Body.String())

		assert.NotEmpty(t, resp.Body["access_token"])
		assert.NotEmpty(t, resp.Body["refresh_token"])
		assert.Equal(t, "Bearer", resp.Body["token_type"])

		acc := resp.Body["account"].(map[string]interface{})
		assert.Equal(t, account.ID.String(), acc["id"])
		assert.Equal(t, "team-leader", acc["role"])
		assert.Equal(t, "engineering", acc["department_id"])

		menu := resp.Body["menu"].([]interface{})
		require.NotEmpty(t, menu)
		assert.Equal(t, "/team-leader/dashboard", menu[0].(map[string]interface{})["href"])
	})

	t.Run("by employee id", func(t *testing.T) {
		resp := login(t, env, account.EmployeeID, testutil.DefaultCredential)
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("validation", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"identifier": "lead@optitalent.io"})
		testutil.AssertError(t, resp, http.StatusBadRequest, CodeValidationError)
	})
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	testutil.NewAccount(t, env.accounts).WithEmail("known@optitalent.io").Create()
	gone := testutil.NewAccount(t, env.accounts).WithEmail("gone@optitalent.io").Create()
	_, err := env.accounts.Deactivate(t.Context(), gone.ID, gone.ID)
	require.NoError(t, err)

	wrongPassword := login(t, env, "known@optitalent.io", "not-the-password")
	unknown := login(t, env, "ghost@optitalent.io", testutil.DefaultCredential)
	deactivated := login(t, env, "gone@optitalent.io", testutil.DefaultCredential)

	for _, resp := range []*testutil.Response{wrongPassword, unknown, deactivated} {
		testutil.AssertError(t, resp, http.StatusUnauthorized, CodeInvalidCredentials)
	}
	assert.Equal(t, wrongPassword.ResponseRecorder.Body.String(), unknown.ResponseRecorder.Body.String())
	assert.Equal(t, wrongPassword.ResponseRecorder.Body.String(), deactivated.ResponseRecorder.Body.String())
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, withLoginLimit(2))

	for i := 0; i < 2; i++ {
		resp := login(t, env, "nobody@optitalent.io", "x")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	resp := login(t, env, "nobody@optitalent.io", "x")
	testutil.AssertError(t, resp, http.StatusTooManyRequests, CodeRateLimited)
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	account := testutil.NewAccount(t, env.accounts).WithRole(rbac.RoleHR).Create()

	first := login(t, env, account.Email, testutil.DefaultCredential)
	require.Equal(t, http.StatusOK, first.Code)
	refreshToken := first.Body["refresh_token"].(string)

	refreshed := env.do(t, http.MethodPost, "/api/auth/refresh", RefreshRequest{RefreshToken: refreshToken})
	require.Equal(t, http.StatusOK, refreshed.Code)
	assert.NotEqual(t, refreshToken, refreshed.Body["refresh_token"])

	t.Run("refresh token is single use", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/refresh", RefreshRequest{RefreshToken: refreshToken})
		testutil.AssertError(t, resp, http.StatusUnauthorized, auth.CodeTokenExpiredOrInvalid)
	})

	t.Run("logout ends the session", func(t *testing.T) {
		access := refreshed.Body["access_token"].(string)
		nextRefresh := refreshed.Body["refresh_token"].(string)

		resp := env.doAs(t, access, http.MethodPost, "/api/auth/logout", LogoutRequest{RefreshToken: nextRefresh})
		require.Equal(t, http.StatusNoContent, resp.Code)

		me := env.doAs(t, access, http.MethodGet, "/api/me", nil)
		testutil.AssertError(t, me, http.StatusUnauthorized, auth.CodeTokenExpiredOrInvalid)

		again := env.do(t, http.MethodPost, "/api/auth/refresh", RefreshRequest{RefreshToken: nextRefresh})
		testutil.AssertError(t, again, http.StatusUnauthorized, auth.CodeTokenExpiredOrInvalid)
	})

	t.Run("logout without body", func(t *testing.T) {
		token := env.tokenFor(t, rbac.RoleHR, "")
		resp := env.doAs(t, token, http.MethodPost, "/api/auth/logout", nil)
		assert.Equal(t, http.StatusNoContent, resp.Code)
	})
}

func TestGuard_StoreDownFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, rbac.RoleAdmin, "")
	env.redis.Close()

	resp := env.doAs(t, token, http.MethodGet, "/api/accounts", nil)
	testutil.AssertError(t, resp, http.StatusServiceUnavailable, auth.CodeAuthorizationUnavailable)
}
