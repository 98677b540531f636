package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/navigation"
	"github.com/optitalent/hr-backend/internal/rbac"
)

type MeResponse struct {
	AccountID     uuid.UUID `json:"account_id"`
	Role          rbac.Role `json:"role"`
	DepartmentID  string    `json:"department_id,omitempty"`
	DeptScoped    bool      `json:"department_scoped"`
	ExpiresAt     time.Time `json:"expires_at"`
	PolicyVersion string    `json:"policy_version"`
}

type MenuResponse struct {
	Role          rbac.Role       `json:"role"`
	PolicyVersion string          `json:"policy_version"`
	Items         []rbac.MenuItem `json:"items"`
}

// Me describes the caller as the token and active table see them.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetClaims(r.Context())
	writeJSON(w, http.StatusOK, MeResponse{
		AccountID:     claims.AccountID,
		Role:          claims.Role,
		DepartmentID:  claims.DepartmentID,
		DeptScoped:    claims.Scope().Scoped(),
		ExpiresAt:     claims.ExpiresAt,
		PolicyVersion: auth.TableFrom(r.Context()).Version(),
	})
}

// Menu is rendered from the same table snapshot the guard checked, so a
// listed section is never rejected on the same request.
func (s *Server) Menu(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetClaims(r.Context())
	table := auth.TableFrom(r.Context())
	writeJSON(w, http.StatusOK, MenuResponse{
		Role:          claims.Role,
		PolicyVersion: table.Version(),
		Items:         rbac.ResolveMenu(table, claims.Role),
	})
}

// ResolveNavigation answers where the browser should go for ?path=. An
// absent or dead token yields the unauthenticated decision, not a 401.
func (s *Server) ResolveNavigation(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, s.enforcer.Enforce(nil, path))
		return
	}

	session := &navigation.Session{Role: claims.Role}
	writeJSON(w, http.StatusOK, navigation.Resolve(auth.TableFrom(r.Context()), session, path))
}
