// Package navigation decides where a browser should be sent for a client
// route. It is advisory; API requests are still checked by the guard.
package navigation

import (
	"net/url"
	"path"
	"strings"

	"github.com/optitalent/hr-backend/internal/rbac"
)

const LoginPath = "/login"

type State int

const (
	Unauthenticated State = iota
	AuthenticatedMatching
	AuthenticatedMismatched
)

func (s State) String() string {
	switch s {
	case AuthenticatedMatching:
		return "authenticated_matching"
	case AuthenticatedMismatched:
		return "authenticated_mismatched"
	default:
		return "unauthenticated"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is the verified role of the browser tab, if any.
type Session struct {
	Role rbac.Role
}

type Decision struct {
	State    State  `json:"state"`
	Redirect string `json:"redirect,omitempty"`
}

// Redirects reports whether the browser must navigate away.
func (d Decision) Redirects() bool {
	return d.Redirect != ""
}

type Enforcer struct {
	policy *rbac.Policy
}

func NewEnforcer(policy *rbac.Policy) *Enforcer {
	return &Enforcer{policy: policy}
}

func (e *Enforcer) Enforce(session *Session, rawPath string) Decision {
	return Resolve(e.policy.Table(), session, rawPath)
}

// Resolve computes the decision for rawPath against one table snapshot.
func Resolve(table *rbac.Table, session *Session, rawPath string) Decision {
	path, query := splitPath(rawPath)

	// A role without a dashboard (unknown or emptied) has nowhere to land.
	if session == nil || !table.IsPermitted(session.Role, rbac.SegmentDashboard) {
		if path == LoginPath {
			return Decision{State: Unauthenticated}
		}
		return Decision{State: Unauthenticated, Redirect: LoginPath}
	}

	role := session.Role
	segments := splitSegments(path)

	if len(segments) > 0 && segments[0] == string(role) {
		suffix := segments[1:]
		if len(suffix) == 0 || !table.IsPermitted(role, suffix[0]) {
			return Decision{State: AuthenticatedMatching, Redirect: dashboard(role)}
		}
		return Decision{State: AuthenticatedMatching}
	}

	suffix := segments
	if len(segments) > 0 {
		if _, err := rbac.ParseRole(segments[0]); err == nil {
			suffix = segments[1:]
		}
	}

	if len(suffix) == 0 || !table.IsPermitted(role, suffix[0]) {
		return Decision{State: AuthenticatedMismatched, Redirect: dashboard(role)}
	}

	target := "/" + string(role) + "/" + strings.Join(suffix, "/")
	if query != "" {
		target += "?" + query
	}
	return Decision{State: AuthenticatedMismatched, Redirect: target}
}

func dashboard(role rbac.Role) string {
	return rbac.Href(role, rbac.SegmentDashboard)
}

// splitPath returns the cleaned path and the raw query. Dot segments are
// resolved before any segment is copied into a redirect.
func splitPath(rawPath string) (string, string) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return "/", ""
	}
	return path.Clean("/" + u.Path), u.RawQuery
}

func splitSegments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
