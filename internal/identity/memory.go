package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/rbac"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
	audit    []AuditEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*Account),
		now:      time.Now,
	}
}

func (m *MemoryStore) FindByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email := IsEmail(identifier)
	for _, a := range m.accounts {
		if email && a.Email == NormalizeEmail(identifier) {
			return copyAccount(a), nil
		}
		if !email && a.EmployeeID == NormalizeEmployeeID(identifier) {
			return copyAccount(a), nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(a), nil
}

func (m *MemoryStore) Create(ctx context.Context, in NewAccount) (*Account, error) {
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := HashCredential(in.Credential)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email := NormalizeEmail(in.Email)
	employeeID := NormalizeEmployeeID(in.EmployeeID)
	for _, a := range m.accounts {
		if a.Email == email || a.EmployeeID == employeeID {
			return nil, ErrDuplicateAccount
		}
	}

	now := m.now()
	a := &Account{
		ID:             uuid.New(),
		Email:          email,
		EmployeeID:     employeeID,
		CredentialHash: hash,
		Role:           in.Role,
		DepartmentID:   in.DepartmentID,
		ProfileRef:     in.ProfileRef,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.accounts[a.ID] = a
	return copyAccount(a), nil
}

func (m *MemoryStore) UpdateRole(ctx context.Context, id uuid.UUID, role rbac.Role, actorID uuid.UUID) (*RoleChange, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	previous := a.Role
	a.Role = role
	a.UpdatedAt = m.now()
	m.audit = append(m.audit, AuditEntry{
		AccountID: id,
		Action:    AuditRoleChanged,
		OldRole:   previous,
		NewRole:   role,
		ActorID:   actorID,
		At:        a.UpdatedAt,
	})

	return &RoleChange{Account: copyAccount(a), Previous: previous}, nil
}

func (m *MemoryStore) Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	a.Active = false
	a.UpdatedAt = m.now()
	m.audit = append(m.audit, AuditEntry{
		AccountID: id,
		Action:    AuditDeactivated,
		OldRole:   a.Role,
		ActorID:   actorID,
		At:        a.UpdatedAt,
	})

	return copyAccount(a), nil
}

func (m *MemoryStore) List(ctx context.Context, scope rbac.Scope, limit, offset int) ([]Account, error) {
	m.mu.RLock()
	all := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if scope.Permits(a.DepartmentID) {
			all = append(all, *a)
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].EmployeeID < all[j].EmployeeID
	})

	if offset >= len(all) {
		return []Account{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Audit returns the recorded audit entries in order.
func (m *MemoryStore) Audit() []AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

func copyAccount(a *Account) *Account {
	c := *a
	return &c
}
