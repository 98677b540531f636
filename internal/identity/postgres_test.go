package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/optitalent/hr-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	testDB := testutil.NewTestDatabase(t)
	testDB.RunMigrations(t)
	testutil.SeedDepartments(t, directory.NewPostgresRepository(testDB.Pool()), "engineering")

	store := identity.NewPostgresStore(testDB.Pool())
	ctx := context.Background()

	t.Run("create and find by either identifier", func(t *testing.T) {
		created := seedAccount(t, store, "Lead@OptiTalent.com", "emp100", rbac.RoleTeamLeader)
		assert.Equal(t, "lead@optitalent.com", created.Email)
		assert.Equal(t, "EMP100", created.EmployeeID)
		assert.Equal(t, "engineering", created.DepartmentID)
		assert.True(t, created.Active)

		byEmail, err := store.FindByIdentifier(ctx, "lead@optitalent.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)

		byEmployee, err := store.FindByIdentifier(ctx, "Emp100")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmployee.ID)
		assert.NoError(t, identity.VerifyCredential(byEmployee, "correct-horse"))
	})

	t.Run("duplicates are rejected", func(t *testing.T) {
		seedAccount(t, store, "dup@optitalent.com", "emp200", rbac.RoleEmployee)
		_, err := store.Create(ctx, identity.NewAccount{
			Email: "DUP@optitalent.com", EmployeeID: "emp201", Credential: "x", Role: rbac.RoleEmployee,
		})
		assert.ErrorIs(t, err, identity.ErrDuplicateAccount)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := store.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, identity.ErrAccountNotFound)

		_, err = store.UpdateRole(ctx, uuid.New(), rbac.RoleHR, uuid.New())
		assert.ErrorIs(t, err, identity.ErrAccountNotFound)

		_, err = store.Deactivate(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, identity.ErrAccountNotFound)
	})

	t.Run("role change and deactivation are audited", func(t *testing.T) {
		admin := seedAccount(t, store, "root@optitalent.com", "emp300", rbac.RoleAdmin)
		target := seedAccount(t, store, "temp@optitalent.com", "emp301", rbac.RoleEmployee)

		change, err := store.UpdateRole(ctx, target.ID, rbac.RoleManager, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleEmployee, change.Previous)
		assert.Equal(t, rbac.RoleManager, change.Account.Role)

		deactivated, err := store.Deactivate(ctx, target.ID, admin.ID)
		require.NoError(t, err)
		assert.False(t, deactivated.Active)

		// deactivated accounts are kept
		found, err := store.FindByID(ctx, target.ID)
		require.NoError(t, err)
		assert.False(t, found.Active)

		trail, err := store.AuditFor(ctx, target.ID)
		require.NoError(t, err)
		require.Len(t, trail, 2)
		assert.Equal(t, identity.AuditRoleChanged, trail[0].Action)
		assert.Equal(t, rbac.RoleEmployee, trail[0].OldRole)
		assert.Equal(t, rbac.RoleManager, trail[0].NewRole)
		assert.Equal(t, admin.ID, trail[0].ActorID)
		assert.Equal(t, identity.AuditDeactivated, trail[1].Action)
	})

	t.Run("list pages by employee id", func(t *testing.T) {
		all, err := store.List(ctx, rbac.AllDepartments(), 100, 0)
		require.NoError(t, err)
		require.NotEmpty(t, all)
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i-1].EmployeeID, all[i].EmployeeID)
		}

		page, err := store.List(ctx, rbac.AllDepartments(), 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, all[1].ID, page[0].ID)
	})

	t.Run("list honours department scope", func(t *testing.T) {
		scoped, err := store.List(ctx, rbac.ScopeFor(rbac.RoleManager, "engineering"), 100, 0)
		require.NoError(t, err)
		require.NotEmpty(t, scoped)
		for _, a := range scoped {
			assert.Equal(t, "engineering", a.DepartmentID)
		}

		none, err := store.List(ctx, rbac.ScopeFor(rbac.RoleManager, "finance"), 100, 0)
		require.NoError(t, err)
		assert.Empty(t, none)

		none, err = store.List(ctx, rbac.ScopeFor(rbac.RoleTeamLeader, ""), 100, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
