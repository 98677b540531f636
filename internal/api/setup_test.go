package api

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/observability"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/optitalent/hr-backend/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	identity.HashCost = bcrypt.MinCost
}

type recordingNotifier struct {
	mu          sync.Mutex
	roleChanges []*identity.RoleChange
	deactivated []*identity.Account
}

func (n *recordingNotifier) RoleChanged(ctx context.Context, change *identity.RoleChange, actorID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roleChanges = append(n.roleChanges, change)
}

func (n *recordingNotifier) Deactivated(ctx context.Context, account *identity.Account, actorID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deactivated = append(n.deactivated, account)
}

type testEnv struct {
	handler   http.Handler
	server    *Server
	jwt       *auth.JWTService
	authSvc   *auth.AuthService
	accounts  *identity.MemoryStore
	directory *directory.MemoryRepository
	policy    *rbac.Policy
	metrics   *observability.Metrics
	notifier  *recordingNotifier
	redis     *miniredis.Miniredis

	// seeded employees by code
	employees map[string]*directory.Employee
}

type envOption func(*Deps, *Options)

func withRevokeOnRoleChange() envOption {
	return func(_ *Deps, o *Options) { o.RevokeOnRoleChange = true }
}

func withLoginLimit(n int) envOption {
	return func(_ *Deps, o *Options) {
		o.RateLimit = config.RateLimitConfig{LoginRequests: n, LoginWindow: time.Minute}
	}
}

func withDeps(fn func(*Deps)) envOption {
	return func(d *Deps, _ *Options) { fn(d) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	jwtSvc, err := auth.NewJWTService([]byte("test-signing-key-0123456789abcdef"), "optitalent-test", 15*time.Minute)
	require.NoError(t, err)

	accounts := identity.NewMemoryStore()
	authSvc := auth.NewAuthService(redisClient, jwtSvc, accounts, config.AuthConfig{
		RefreshExpiry: time.Hour,
		LookupTimeout: time.Second,
	})

	repo := directory.NewMemoryRepository()
	testutil.SeedDepartments(t, repo, "engineering", "sales")
	employees := map[string]*directory.Employee{
		"EMP001": testutil.NewEmployee(t, repo, "engineering").WithCode("EMP001").WithName("Ada Lovelace").Create(),
		"EMP002": testutil.NewEmployee(t, repo, "sales").WithCode("EMP002").WithName("Sam Seller").Create(),
		"EMP003": testutil.NewEmployee(t, repo, "engineering").WithCode("EMP003").WithName("Grace Hopper").Create(),
	}

	policy := rbac.NewPolicy(nil)
	metrics := observability.NewMetrics()
	notifier := &recordingNotifier{}

	deps := Deps{
		Auth:      authSvc,
		Accounts:  accounts,
		Directory: repo,
		Notifier:  notifier,
		Policy:    policy,
		Metrics:   metrics,
	}
	var options Options
	for _, opt := range opts {
		opt(&deps, &options)
	}

	server := NewServer(deps, options)
	guard := auth.NewGuard(authSvc, policy, config.GuardConfig{LookupTimeout: time.Second}, metrics).
		WithResponder(RejectionResponder)

	return &testEnv{
		handler:   server.Router(guard, nil),
		server:    server,
		jwt:       jwtSvc,
		authSvc:   authSvc,
		accounts:  accounts,
		directory: repo,
		policy:    policy,
		metrics:   metrics,
		notifier:  notifier,
		redis:     mr,
		employees: employees,
	}
}

// tokenFor mints a fresh access token for an account that need not exist.
func (e *testEnv) tokenFor(t *testing.T, role rbac.Role, departmentID string) string {
	t.Helper()
	token, _, err := e.jwt.GenerateToken(context.Background(), &identity.Account{
		ID:           uuid.New(),
		Role:         role,
		DepartmentID: departmentID,
	})
	require.NoError(t, err)
	return token
}

// tokenForAccount mints a token for a stored account.
func (e *testEnv) tokenForAccount(t *testing.T, a *identity.Account) string {
	t.Helper()
	token, _, err := e.jwt.GenerateToken(context.Background(), a)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *testutil.Response {
	t.Helper()
	return testutil.Serve(t, e.handler, testutil.Request{Method: method, Path: path, Body: body})
}

func (e *testEnv) doAs(t *testing.T, token, method, path string, body interface{}) *testutil.Response {
	t.Helper()
	return testutil.ServeAs(t, e.handler, testutil.Request{Method: method, Path: path, Body: body}, token)
}
