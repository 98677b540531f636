package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/observability"
	"github.com/optitalent/hr-backend/internal/rbac"
)

type contextKey string

const (
	claimsKey contextKey = "token_claims"
	tableKey  contextKey = "rbac_table"
)

// Rejection codes returned by the guard.
const (
	CodeMissingOrInvalidToken    = "MISSING_OR_INVALID_TOKEN"
	CodeTokenExpiredOrInvalid    = "TOKEN_EXPIRED_OR_INVALID"
	CodeForbidden                = "FORBIDDEN"
	CodeAuthorizationUnavailable = "AUTHORIZATION_UNAVAILABLE"
	CodeResourceNotFound         = "RESOURCE_NOT_FOUND"
)

// Rejection is a guard refusal. Messages are fixed per code so the body
// never reveals which check failed.
type Rejection struct {
	Status  int
	Code    string
	Message string
}

var (
	RejectMissingToken = Rejection{http.StatusUnauthorized, CodeMissingOrInvalidToken, "Missing or invalid authorization token"}
	RejectInvalidToken = Rejection{http.StatusUnauthorized, CodeTokenExpiredOrInvalid, "Token expired or invalid"}
	RejectForbidden    = Rejection{http.StatusForbidden, CodeForbidden, "You do not have access to this resource"}
	RejectUnavailable  = Rejection{http.StatusServiceUnavailable, CodeAuthorizationUnavailable, "Authorization is temporarily unavailable"}
	RejectNotFound     = Rejection{http.StatusNotFound, CodeResourceNotFound, "Resource not found"}
)

// RejectFunc writes a rejection to the client.
type RejectFunc func(w http.ResponseWriter, r *http.Request, rej Rejection)

// TokenVerifier is the part of AuthService the guard needs.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	CheckRevocation(ctx context.Context, claims *TokenClaims) error
}

// DepartmentResolver loads the department of the resource a request
// targets. found is false when the resource does not exist.
type DepartmentResolver func(r *http.Request) (departmentID string, found bool, err error)

// Guard authorizes requests from the verified token alone. It never trusts
// a role or department sent by the client.
type Guard struct {
	tokens        TokenVerifier
	policy        *rbac.Policy
	lookupTimeout time.Duration
	metrics       *observability.Metrics
	respond       RejectFunc
}

func NewGuard(tokens TokenVerifier, policy *rbac.Policy, cfg config.GuardConfig, metrics *observability.Metrics) *Guard {
	return &Guard{
		tokens:        tokens,
		policy:        policy,
		lookupTimeout: cfg.LookupTimeout,
		metrics:       metrics,
		respond:       writeRejection,
	}
}

// WithResponder replaces the JSON writer used for rejections.
func (g *Guard) WithResponder(fn RejectFunc) *Guard {
	g.respond = fn
	return g
}

// Authenticate requires a valid, unrevoked bearer token whose role the
// active table knows.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			g.reject(w, r, "", RejectMissingToken)
			return
		}

		claims, rej, ok := g.verify(r.Context(), token)
		if !ok {
			g.reject(w, r, "", rej)
			return
		}

		table := g.policy.Table()
		if !table.Knows(claims.Role) {
			g.reject(w, r, "", RejectForbidden)
			return
		}

		g.metrics.RecordGuardDecision("", observability.OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), claims, table)))
	})
}

// Optional attaches the session when a valid token is present and forwards
// anonymously otherwise.
func (g *Guard) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		table := g.policy.Table()
		if token, ok := bearerToken(r); ok {
			if claims, _, ok := g.verify(ctx, token); ok && table.Knows(claims.Role) {
				ctx = withSession(ctx, claims, table)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require allows the request only if the caller's role holds access on
// segment. Mount it after Authenticate.
func (g *Guard) Require(segment string, access rbac.Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				g.reject(w, r, segment, RejectMissingToken)
				return
			}

			if !TableFrom(r.Context()).Allows(claims.Role, segment, access) {
				g.reject(w, r, segment, RejectForbidden)
				return
			}

			g.metrics.RecordGuardDecision(segment, observability.OutcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireDepartment rejects department-scoped callers whose department
// differs from the target's. Scoped callers get 403 for a missing target
// too, so existence outside their department is not revealed.
func (g *Guard) RequireDepartment(resolve DepartmentResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				g.reject(w, r, "", RejectMissingToken)
				return
			}

			ctx, cancel := g.lookupContext(r.Context())
			dept, found, err := resolve(r.WithContext(ctx))
			cancel()
			if err != nil {
				g.reject(w, r, "", RejectUnavailable)
				return
			}

			scope := claims.Scope()
			switch {
			case !found && scope.Scoped():
				g.reject(w, r, "", RejectForbidden)
			case !found:
				g.reject(w, r, "", RejectNotFound)
			case !scope.Permits(dept):
				g.reject(w, r, "", RejectForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (g *Guard) verify(ctx context.Context, token string) (*TokenClaims, Rejection, bool) {
	claims, err := g.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, RejectInvalidToken, false
	}

	lookupCtx, cancel := g.lookupContext(ctx)
	defer cancel()
	if err := g.tokens.CheckRevocation(lookupCtx, claims); err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return nil, RejectInvalidToken, false
		}
		return nil, RejectUnavailable, false
	}
	return claims, Rejection{}, true
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, section string, rej Rejection) {
	outcome := observability.OutcomeForbidden
	switch rej.Status {
	case http.StatusUnauthorized:
		outcome = observability.OutcomeUnauthorized
	case http.StatusServiceUnavailable:
		outcome = observability.OutcomeUnavailable
	}
	g.metrics.RecordGuardDecision(section, outcome)
	g.respond(w, r, rej)
}

func (g *Guard) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.lookupTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.lookupTimeout)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	return token, token != ""
}

func writeRejection(w http.ResponseWriter, r *http.Request, rej Rejection) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rej.Status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": rej.Code, "message": rej.Message},
	})
}

// Scope is the data visibility of the token holder.
func (c *TokenClaims) Scope() rbac.Scope {
	return rbac.ScopeFor(c.Role, c.DepartmentID)
}

func withSession(ctx context.Context, claims *TokenClaims, table *rbac.Table) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, tableKey, table)
}

// WithClaims attaches claims as if the guard had verified them. Tests and
// background callers use it.
func WithClaims(ctx context.Context, claims *TokenClaims, table *rbac.Table) context.Context {
	return withSession(ctx, claims, table)
}

func GetClaims(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*TokenClaims)
	return claims, ok
}

// TableFrom returns the table snapshot taken when the request was
// authenticated. Without one it returns nil, which permits nothing.
func TableFrom(ctx context.Context) *rbac.Table {
	table, _ := ctx.Value(tableKey).(*rbac.Table)
	return table
}
