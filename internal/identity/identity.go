// Package identity stores accounts: who a user is, the single role they
// hold, and the department they belong to.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/rbac"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateAccount   = errors.New("account with this email or employee id already exists")
	ErrCredentialMismatch = errors.New("credential does not match")
	ErrInvalidRole        = errors.New("invalid role")
)

// HashCost is the bcrypt cost used for new credentials. Tests lower it.
var HashCost = bcrypt.DefaultCost

type Account struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	EmployeeID     string    `json:"employee_id"`
	CredentialHash string    `json:"-"`
	Role           rbac.Role `json:"role"`
	DepartmentID   string    `json:"department_id,omitempty"`
	ProfileRef     string    `json:"profile_ref,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type NewAccount struct {
	Email        string
	EmployeeID   string
	Credential   string
	Role         rbac.Role
	DepartmentID string
	ProfileRef   string
}

// RoleChange is the outcome of UpdateRole.
type RoleChange struct {
	Account  *Account
	Previous rbac.Role
}

const (
	AuditRoleChanged = "role_changed"
	AuditDeactivated = "deactivated"
)

type AuditEntry struct {
	AccountID uuid.UUID
	Action    string
	OldRole   rbac.Role
	NewRole   rbac.Role
	ActorID   uuid.UUID
	At        time.Time
}

// Store is the account repository. Role changes and deactivation are
// admin-only; callers reach them through guarded routes.
type Store interface {
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Create(ctx context.Context, in NewAccount) (*Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role rbac.Role, actorID uuid.UUID) (*RoleChange, error)
	Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Account, error)
	List(ctx context.Context, scope rbac.Scope, limit, offset int) ([]Account, error)
}

// IsEmail reports whether an identifier names an email rather than an
// employee id.
func IsEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeEmployeeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), HashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyCredential(a *Account, credential string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(a.CredentialHash), []byte(credential)); err != nil {
		return ErrCredentialMismatch
	}
	return nil
}
