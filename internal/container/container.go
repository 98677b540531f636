package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/optitalent/hr-backend/internal/api"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/database"
	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/generation"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/logging"
	"github.com/optitalent/hr-backend/internal/notifications"
	"github.com/optitalent/hr-backend/internal/observability"
	"github.com/optitalent/hr-backend/internal/queue"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config      *config.Config
	Database    *database.Database
	Queue       *queue.TaskQueue
	RedisClient *redis.Client
	Policy      *rbac.Policy
	Metrics     *observability.Metrics
	AuthService *auth.AuthService
	Guard       *auth.Guard
	Server      *api.Server
	Handler     http.Handler

	stopWatch context.CancelFunc
}

func New(cfg *config.Config) (*Container, error) {
	if err := cfg.JWT.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			c.Cleanup()
		}
	}()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}
	c.Database = db
	logging.Info("Connected to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port)

	if err := db.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// The asynq queue keeps its own connection; this client holds session
	// state (refresh tokens, deny-list, revocation markers).
	c.RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.Metrics = observability.NewMetrics()
	if c.Policy, err = c.loadPolicy(); err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		return nil, err
	}
	accounts := identity.NewPostgresStore(db.Pool())
	c.AuthService = auth.NewAuthService(c.RedisClient, jwtService, accounts, cfg.Auth)

	notifier, err := c.newNotifier()
	if err != nil {
		return nil, err
	}

	c.Server = api.NewServer(api.Deps{
		Auth:      c.AuthService,
		Accounts:  accounts,
		Directory: directory.NewPostgresRepository(db.Pool()),
		Generator: generation.New(cfg.Generation),
		Notifier:  notifier,
		Policy:    c.Policy,
		Metrics:   c.Metrics,
		Checks: map[string]api.HealthChecker{
			"database": db,
			"redis":    redisPinger{c.RedisClient},
		},
	}, api.Options{
		RevokeOnRoleChange: cfg.Auth.RevokeOnRoleChange,
		RateLimit:          cfg.RateLimit,
	})

	c.Guard = auth.NewGuard(c.AuthService, c.Policy, cfg.Guard, c.Metrics).
		WithResponder(api.RejectionResponder)
	c.Handler = c.Server.Router(c.Guard, &cfg.CORS)

	ok = true
	return c, nil
}

// loadPolicy starts from the built-in table unless a policy file is set.
// A bad file at startup is fatal; a bad file on reload is not.
func (c *Container) loadPolicy() (*rbac.Policy, error) {
	rc := c.Config.RBAC
	if rc.PolicyFile == "" {
		policy := rbac.NewPolicy(nil)
		c.Metrics.SetPolicyVersion(policy.Table().Version())
		logging.Info("Using built-in access policy", "version", policy.Table().Version())
		return policy, nil
	}

	table, err := rbac.LoadTable(rc.PolicyFile)
	if err != nil {
		return nil, err
	}
	policy := rbac.NewPolicy(table)
	c.Metrics.SetPolicyVersion(table.Version())
	logging.Info("Loaded access policy", "path", rc.PolicyFile, "version", table.Version())

	if rc.WatchPolicy {
		ctx, cancel := context.WithCancel(context.Background())
		if err := rbac.WatchPolicyFile(ctx, rc.PolicyFile, policy, c.Metrics.SetPolicyVersion); err != nil {
			cancel()
			return nil, err
		}
		c.stopWatch = cancel
	}
	return policy, nil
}

// newNotifier returns a dispatcher over the task queue. Without Redis for
// the queue, role changes still succeed and no email is sent.
func (c *Container) newNotifier() (api.Notifier, error) {
	tmpl, err := notifications.DefaultTemplates()
	if err != nil {
		return nil, err
	}

	taskQueue, err := queue.NewQueue(&c.Config.Redis)
	if err != nil {
		logging.Warn("Task queue unavailable, account notices disabled", "error", err)
		return notifications.NewDispatcher(nil, tmpl), nil
	}
	c.Queue = taskQueue
	return notifications.NewDispatcher(taskQueue, tmpl), nil
}

func (c *Container) Cleanup() {
	if c.stopWatch != nil {
		c.stopWatch()
	}
	if c.Queue != nil {
		c.Queue.Close()
		logging.Info("Queue client closed")
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
		logging.Info("Redis client closed")
	}
	if c.Database != nil {
		c.Database.Close()
		logging.Info("Database connection closed")
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
