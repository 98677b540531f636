package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/rbac"
)

type MemoryRepository struct {
	mu          sync.RWMutex
	employees   map[uuid.UUID]Employee
	departments map[string]Department
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		employees:   make(map[uuid.UUID]Employee),
		departments: make(map[string]Department),
	}
}

func (m *MemoryRepository) ListEmployees(ctx context.Context, scope rbac.Scope, filter Filter) ([]Employee, error) {
	dept, filtered, err := departmentFor(scope, filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]Employee, 0, len(m.employees))
	for _, e := range m.employees {
		if filtered && e.DepartmentID != dept {
			continue
		}
		if !scope.Permits(e.DepartmentID) {
			continue
		}
		if !matchesSearch(e, filter.Search) {
			continue
		}
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	if filter.Offset >= len(out) {
		return []Employee{}, nil
	}
	end := len(out)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return out[filter.Offset:end], nil
}

func (m *MemoryRepository) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &e, nil
}

func (m *MemoryRepository) CreateEmployee(ctx context.Context, in NewEmployee) (*Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.departments[in.DepartmentID]; !ok {
		return nil, ErrUnknownDepartment
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	for _, e := range m.employees {
		if e.Code == code {
			return nil, ErrDuplicateEmployee
		}
	}

	e := Employee{
		ID:           uuid.New(),
		Code:         code,
		FullName:     in.FullName,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Title:        in.Title,
		DepartmentID: in.DepartmentID,
		HiredOn:      in.HiredOn,
		CreatedAt:    time.Now(),
	}
	m.employees[e.ID] = e
	return &e, nil
}

func (m *MemoryRepository) CreateDepartment(ctx context.Context, d Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.departments[d.ID] = d
	return nil
}

func (m *MemoryRepository) ListDepartments(ctx context.Context) ([]Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Department, 0, len(m.departments))
	for _, d := range m.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
