package api

import (
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/generation"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/navigation"
	"github.com/optitalent/hr-backend/internal/observability"
	"github.com/optitalent/hr-backend/internal/rbac"
)

type Server struct {
	auth      AuthService
	accounts  identity.Store
	directory directory.Repository
	generator generation.Service
	notifier  Notifier
	policy    *rbac.Policy
	enforcer  *navigation.Enforcer
	metrics   *observability.Metrics
	checks    map[string]HealthChecker
	cfg       Options
}

// Options are the behavioural switches handlers read.
type Options struct {
	RevokeOnRoleChange bool
	RateLimit          config.RateLimitConfig
}

type Deps struct {
	Auth      AuthService
	Accounts  identity.Store
	Directory directory.Repository
	Generator generation.Service
	Notifier  Notifier
	Policy    *rbac.Policy
	Metrics   *observability.Metrics
	// Checks are probed by /readyz, keyed by name.
	Checks map[string]HealthChecker
}

func NewServer(deps Deps, opts Options) *Server {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	generator := deps.Generator
	if generator == nil {
		generator = generation.Stub{}
	}
	return &Server{
		auth:      deps.Auth,
		accounts:  deps.Accounts,
		directory: deps.Directory,
		generator: generator,
		notifier:  notifier,
		policy:    deps.Policy,
		enforcer:  navigation.NewEnforcer(deps.Policy),
		metrics:   deps.Metrics,
		checks:    deps.Checks,
		cfg:       opts,
	}
}
