// Package directory holds employee records. Every list query is filtered by
// the caller's rbac.Scope.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/rbac"
)

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDuplicateEmployee  = errors.New("employee code already exists")
	ErrUnknownDepartment  = errors.New("unknown department")
	ErrDepartmentOutScope = errors.New("department outside caller scope")
)

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Employee struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Title        string     `json:"title"`
	DepartmentID string     `json:"department_id"`
	HiredOn      *time.Time `json:"hired_on,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type NewEmployee struct {
	Code         string
	FullName     string
	Email        string
	Title        string
	DepartmentID string
	HiredOn      *time.Time
}

// Filter narrows a listing. DepartmentID is a request, not a grant: scoped
// callers may only name their own department.
type Filter struct {
	DepartmentID string
	Search       string
	Limit        int
	Offset       int
}

type Repository interface {
	ListEmployees(ctx context.Context, scope rbac.Scope, filter Filter) ([]Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error)
	CreateEmployee(ctx context.Context, in NewEmployee) (*Employee, error)
	CreateDepartment(ctx context.Context, d Department) error
	ListDepartments(ctx context.Context) ([]Department, error)
}

// departmentFor resolves the department predicate for a listing. The
// returned bool is false when no department predicate applies.
func departmentFor(scope rbac.Scope, filter Filter) (string, bool, error) {
	if !scope.Scoped() {
		return filter.DepartmentID, filter.DepartmentID != "", nil
	}
	if filter.DepartmentID != "" && !scope.Permits(filter.DepartmentID) {
		return "", false, ErrDepartmentOutScope
	}
	// A scoped caller without a department matches nothing.
	return scope.DepartmentID(), true, nil
}

func matchesSearch(e Employee, search string) bool {
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(e.FullName), s) ||
		strings.Contains(strings.ToLower(e.Email), s) ||
		strings.Contains(strings.ToLower(e.Code), s)
}
