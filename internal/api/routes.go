package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/middleware"
	"github.com/optitalent/hr-backend/internal/rbac"
)

// AccessClass says what the guard demands before a route's handler runs.
type AccessClass int

const (
	Public AccessClass = iota
	// Optional attaches a session when a valid token is sent.
	Optional
	Authenticated
	// Section requires Segment at Access for the caller's role.
	Section
)

func (c AccessClass) String() string {
	switch c {
	case Public:
		return "public"
	case Optional:
		return "optional"
	case Authenticated:
		return "authenticated"
	case Section:
		return "section"
	default:
		return "unknown"
	}
}

// Route is one entry of the API surface. Every handler is mounted from
// this table so no route can skip the guard.
type Route struct {
	Method  string
	Pattern string
	Class   AccessClass
	Segment string
	Access  rbac.Access
	// Department, when set, restricts scoped roles to targets in their
	// own department.
	Department  auth.DepartmentResolver
	RateLimited bool
	Handler     http.HandlerFunc
}

func (s *Server) Routes() []Route {
	section := func(method, pattern, segment string, access rbac.Access, h http.HandlerFunc) Route {
		return Route{Method: method, Pattern: pattern, Class: Section, Segment: segment, Access: access, Handler: h}
	}

	getEmployee := section(http.MethodGet, "/api/employees/{employeeID}", rbac.SegmentEmployees, rbac.AccessView, s.GetEmployee)
	getEmployee.Department = s.employeeDepartment

	return []Route{
		{Method: http.MethodGet, Pattern: "/healthz", Class: Public, Handler: s.HealthCheck},
		{Method: http.MethodGet, Pattern: "/readyz", Class: Public, Handler: s.ReadinessCheck},
		{Method: http.MethodGet, Pattern: "/metrics", Class: Public, Handler: s.metrics.Handler().ServeHTTP},

		{Method: http.MethodPost, Pattern: "/api/auth/login", Class: Public, RateLimited: true, Handler: s.Login},
		{Method: http.MethodPost, Pattern: "/api/auth/refresh", Class: Public, Handler: s.Refresh},
		{Method: http.MethodPost, Pattern: "/api/auth/logout", Class: Authenticated, Handler: s.Logout},

		{Method: http.MethodGet, Pattern: "/api/me", Class: Authenticated, Handler: s.Me},
		{Method: http.MethodGet, Pattern: "/api/navigation/menu", Class: Authenticated, Handler: s.Menu},
		{Method: http.MethodGet, Pattern: "/api/navigation/resolve", Class: Optional, Handler: s.ResolveNavigation},

		section(http.MethodGet, "/api/employees", rbac.SegmentEmployees, rbac.AccessView, s.ListEmployees),
		getEmployee,
		section(http.MethodPost, "/api/employees", rbac.SegmentEmployees, rbac.AccessManage, s.CreateEmployee),
		section(http.MethodGet, "/api/departments", rbac.SegmentDepartments, rbac.AccessView, s.ListDepartments),

		section(http.MethodGet, "/api/accounts", rbac.SegmentAccounts, rbac.AccessView, s.ListAccounts),
		section(http.MethodPost, "/api/accounts", rbac.SegmentAccounts, rbac.AccessManage, s.CreateAccount),
		section(http.MethodPatch, "/api/accounts/{accountID}/role", rbac.SegmentAccounts, rbac.AccessManage, s.ChangeRole),
		section(http.MethodPost, "/api/accounts/{accountID}/deactivate", rbac.SegmentAccounts, rbac.AccessManage, s.DeactivateAccount),
		section(http.MethodPost, "/api/accounts/{accountID}/revoke", rbac.SegmentAccounts, rbac.AccessManage, s.RevokeSessions),

		section(http.MethodPost, "/api/assistant/{flow}", rbac.SegmentAssistant, rbac.AccessManage, s.RunAssistant),
	}
}

// Router mounts every route behind the guard. cors may be nil.
func (s *Server) Router(guard *auth.Guard, cors *config.CORSConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestContext)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	if cors != nil {
		r.Use(middleware.NewCORSHandler(cors))
	}
	r.Use(s.metrics.Middleware)

	limiter := s.loginLimiter()
	for _, rt := range s.Routes() {
		var chain []func(http.Handler) http.Handler
		if rt.RateLimited && limiter != nil {
			chain = append(chain, limiter)
		}
		chain = append(chain, guardChain(guard, rt)...)
		r.With(chain...).Method(rt.Method, rt.Pattern, rt.Handler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFound("route").Write(w, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewError(CodeMethodNotAllowed, "Method not allowed").Write(w, http.StatusMethodNotAllowed)
	})

	return r
}

func guardChain(guard *auth.Guard, rt Route) []func(http.Handler) http.Handler {
	switch rt.Class {
	case Optional:
		return []func(http.Handler) http.Handler{guard.Optional, middleware.AnnotateCaller}
	case Authenticated:
		return []func(http.Handler) http.Handler{guard.Authenticate, middleware.AnnotateCaller}
	case Section:
		chain := []func(http.Handler) http.Handler{
			guard.Authenticate,
			middleware.AnnotateCaller,
			guard.Require(rt.Segment, rt.Access),
		}
		if rt.Department != nil {
			chain = append(chain, guard.RequireDepartment(rt.Department))
		}
		return chain
	default:
		return nil
	}
}

func (s *Server) loginLimiter() func(http.Handler) http.Handler {
	rl := s.cfg.RateLimit
	if rl.LoginRequests <= 0 || rl.LoginWindow <= 0 {
		return nil
	}
	return httprate.Limit(rl.LoginRequests, rl.LoginWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewError(CodeRateLimited, "Too many login attempts").Write(w, http.StatusTooManyRequests)
		}),
	)
}
