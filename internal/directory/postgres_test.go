package directory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/optitalent/hr-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	testDB := testutil.NewTestDatabase(t)
	testDB.RunMigrations(t)

	repo := directory.NewPostgresRepository(testDB.Pool())
	seed(t, repo)
	ctx := context.Background()

	t.Run("manager sees only own department", func(t *testing.T) {
		scope := rbac.ScopeFor(rbac.RoleManager, "engineering")

		list, err := repo.ListEmployees(ctx, scope, directory.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"EMP001", "EMP003"}, codes(list))

		_, err = repo.ListEmployees(ctx, scope, directory.Filter{DepartmentID: "sales"})
		assert.ErrorIs(t, err, directory.ErrDepartmentOutScope)
	})

	t.Run("scoped without department sees nothing", func(t *testing.T) {
		list, err := repo.ListEmployees(ctx, rbac.ScopeFor(rbac.RoleTeamLeader, ""), directory.Filter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("unscoped filters", func(t *testing.T) {
		scope := rbac.ScopeFor(rbac.RoleAdmin, "")

		all, err := repo.ListEmployees(ctx, scope, directory.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"EMP001", "EMP002", "EMP003"}, codes(all))

		found, err := repo.ListEmployees(ctx, scope, directory.Filter{Search: "HOPPER"})
		require.NoError(t, err)
		assert.Equal(t, []string{"EMP003"}, codes(found))

		page, err := repo.ListEmployees(ctx, scope, directory.Filter{Limit: 1, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"EMP003"}, codes(page))
	})

	t.Run("create errors", func(t *testing.T) {
		_, err := repo.CreateEmployee(ctx, directory.NewEmployee{Code: "EMP001", FullName: "Dup", DepartmentID: "sales"})
		assert.ErrorIs(t, err, directory.ErrDuplicateEmployee)

		_, err = repo.CreateEmployee(ctx, directory.NewEmployee{Code: "EMP900", FullName: "Nobody", DepartmentID: "marketing"})
		assert.ErrorIs(t, err, directory.ErrUnknownDepartment)
	})

	t.Run("get and departments", func(t *testing.T) {
		e := testutil.NewEmployee(t, repo, "sales").WithName("Lin Ng").Create()

		got, err := repo.GetEmployee(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "Lin Ng", got.FullName)
		require.NotNil(t, got.HiredOn)

		_, err = repo.GetEmployee(ctx, uuid.New())
		assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)

		depts, err := repo.ListDepartments(ctx)
		require.NoError(t, err)
		assert.Len(t, depts, 2)
	})
}
