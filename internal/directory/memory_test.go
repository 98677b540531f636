package directory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDirectory(t *testing.T) *directory.MemoryRepository {
	t.Helper()
	repo := directory.NewMemoryRepository()
	seed(t, repo)
	return repo
}

func seed(t *testing.T, repo directory.Repository) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.CreateDepartment(ctx, directory.Department{ID: "engineering", Name: "Engineering"}))
	require.NoError(t, repo.CreateDepartment(ctx, directory.Department{ID: "sales", Name: "Sales"}))

	for _, e := range []directory.NewEmployee{
		{Code: "EMP001", FullName: "Ada Lovelace", Email: "ada@optitalent.com", DepartmentID: "engineering"},
		{Code: "EMP002", FullName: "Sam Seller", Email: "sam@optitalent.com", DepartmentID: "sales"},
		{Code: "EMP003", FullName: "Grace Hopper", Email: "grace@optitalent.com", DepartmentID: "engineering"},
	} {
		_, err := repo.CreateEmployee(ctx, e)
		require.NoError(t, err)
	}
}

func codes(list []directory.Employee) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Code)
	}
	return out
}

func TestListEmployees_ManagerSeesOnlyOwnDepartment(t *testing.T) {
	ctx := context.Background()
	repo := seedDirectory(t)
	scope := rbac.ScopeFor(rbac.RoleManager, "engineering")

	t.Run("no filter", func(t *testing.T) {
		list, err := repo.ListEmployees(ctx, scope, directory.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"EMP001", "EMP003"}, codes(list))
		for _, e := range list {
			assert.Equal(t, "engineering", e.DepartmentID)
		}
	})

	t.Run("naming own department", func(t *testing.T) {
		list, err := repo.ListEmployees(ctx, scope, directory.Filter{DepartmentID: "engineering"})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("naming another department is rejected", func(t *testing.T) {
		list, err := repo.ListEmployees(ctx, scope, directory.Filter{DepartmentID: "sales"})
		assert.ErrorIs(t, err, directory.ErrDepartmentOutScope)
		assert.Nil(t, list)
	})
}

func TestListEmployees_ScopedWithoutDepartmentSeesNothing(t *testing.T) {
	repo := seedDirectory(t)

	list, err := repo.ListEmployees(context.Background(), rbac.ScopeFor(rbac.RoleTeamLeader, ""), directory.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListEmployees_Unscoped(t *testing.T) {
	ctx := context.Background()
	repo := seedDirectory(t)
	scope := rbac.ScopeFor(rbac.RoleHR, "people")

	all, err := repo.ListEmployees(ctx, scope, directory.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sales, err := repo.ListEmployees(ctx, scope, directory.Filter{DepartmentID: "sales"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EMP002"}, codes(sales))

	found, err := repo.ListEmployees(ctx, scope, directory.Filter{Search: "hopper"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EMP003"}, codes(found))

	page, err := repo.ListEmployees(ctx, scope, directory.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"EMP002"}, codes(page))
}

func TestCreateEmployee(t *testing.T) {
	ctx := context.Background()
	repo := seedDirectory(t)

	_, err := repo.CreateEmployee(ctx, directory.NewEmployee{Code: "emp001", FullName: "Dup", DepartmentID: "sales"})
	assert.ErrorIs(t, err, directory.ErrDuplicateEmployee)

	_, err = repo.CreateEmployee(ctx, directory.NewEmployee{Code: "EMP100", FullName: "Nobody", DepartmentID: "marketing"})
	assert.ErrorIs(t, err, directory.ErrUnknownDepartment)
}

func TestGetEmployee(t *testing.T) {
	ctx := context.Background()
	repo := seedDirectory(t)

	list, err := repo.ListEmployees(ctx, rbac.AllDepartments(), directory.Filter{})
	require.NoError(t, err)

	got, err := repo.GetEmployee(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0].Code, got.Code)

	_, err = repo.GetEmployee(ctx, uuid.New())
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)
}
