package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/stretchr/testify/require"
)

// DefaultCredential is the password every built account gets unless
// WithCredential overrides it.
const DefaultCredential = "correct-horse-battery"

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// AccountBuilder provides a fluent interface for creating test accounts
type AccountBuilder struct {
	t     *testing.T
	store identity.Store
	in    identity.NewAccount
}

// NewAccount starts an employee-role account with a unique email and
// employee id.
func NewAccount(t *testing.T, store identity.Store) *AccountBuilder {
	n := next()
	return &AccountBuilder{
		t:     t,
		store: store,
		in: identity.NewAccount{
			Email:      fmt.Sprintf("user%d@optitalent.test", n),
			EmployeeID: fmt.Sprintf("E-%04d", n),
			Credential: DefaultCredential,
			Role:       rbac.RoleEmployee,
		},
	}
}

func (ab *AccountBuilder) WithEmail(email string) *AccountBuilder {
	ab.in.Email = email
	return ab
}

func (ab *AccountBuilder) WithRole(role rbac.Role) *AccountBuilder {
	ab.in.Role = role
	return ab
}

func (ab *AccountBuilder) InDepartment(departmentID string) *AccountBuilder {
	ab.in.DepartmentID = departmentID
	return ab
}

func (ab *AccountBuilder) Create() *identity.Account {
	ab.t.Helper()
	acc, err := ab.store.Create(context.Background(), ab.in)
	require.NoError(ab.t, err, "Failed to create test account")
	return acc
}

// EmployeeBuilder provides a fluent interface for creating employee records
type EmployeeBuilder struct {
	t    *testing.T
	repo directory.Repository
	in   directory.NewEmployee
}

func NewEmployee(t *testing.T, repo directory.Repository, departmentID string) *EmployeeBuilder {
	n := next()
	hired := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	return &EmployeeBuilder{
		t:    t,
		repo: repo,
		in: directory.NewEmployee{
			Code:         fmt.Sprintf("EMP-%04d", n),
			FullName:     fmt.Sprintf("Test Employee %d", n),
			Email:        fmt.Sprintf("employee%d@optitalent.test", n),
			Title:        "Analyst",
			DepartmentID: departmentID,
			HiredOn:      &hired,
		},
	}
}

func (eb *EmployeeBuilder) WithName(name string) *EmployeeBuilder {
	eb.in.FullName = name
	return eb
}

func (eb *EmployeeBuilder) WithCode(code string) *EmployeeBuilder {
	eb.in.Code = code
	return eb
}

func (eb *EmployeeBuilder) Create() *directory.Employee {
	eb.t.Helper()
	e, err := eb.repo.CreateEmployee(context.Background(), eb.in)
	require.NoError(eb.t, err, "Failed to create test employee")
	return e
}

// SeedDepartments creates each department id, using the id as its name.
func SeedDepartments(t *testing.T, repo directory.Repository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, repo.CreateDepartment(context.Background(), directory.Department{ID: id, Name: id}))
	}
}
