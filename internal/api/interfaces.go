package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/identity"
)

// AuthService is the part of auth.AuthService the handlers call.
type AuthService interface {
	Authenticate(ctx context.Context, identifier, credential string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	Logout(ctx context.Context, claims *auth.TokenClaims, refreshToken string) error
	RevokeSubject(ctx context.Context, accountID uuid.UUID) error
}

// Notifier tells account holders about administrative changes.
type Notifier interface {
	RoleChanged(ctx context.Context, change *identity.RoleChange, actorID uuid.UUID)
	Deactivated(ctx context.Context, account *identity.Account, actorID uuid.UUID)
}

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type noopNotifier struct{}

func (noopNotifier) RoleChanged(context.Context, *identity.RoleChange, uuid.UUID) {}
func (noopNotifier) Deactivated(context.Context, *identity.Account, uuid.UUID)    {}
