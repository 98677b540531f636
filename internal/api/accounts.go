package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/middleware"
	"github.com/optitalent/hr-backend/internal/rbac"
)

type AccountListResponse struct {
	Accounts   []identity.Account `json:"accounts"`
	Pagination PaginationMeta     `json:"pagination"`
}

type CreateAccountRequest struct {
	Email        string `json:"email" validate:"required,email,max=254"`
	EmployeeID   string `json:"employee_id" validate:"required,max=32"`
	Credential   string `json:"credential" validate:"required,min=8,max=128"`
	Role         string `json:"role" validate:"required"`
	DepartmentID string `json:"department_id"`
	ProfileRef   string `json:"profile_ref"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type RoleChangeResponse struct {
	Account         *identity.Account `json:"account"`
	PreviousRole    rbac.Role         `json:"previous_role"`
	SessionsRevoked bool              `json:"sessions_revoked"`
}

// ListAccounts pages through accounts. Department-scoped callers granted
// the accounts view only see their own department.
func (s *Server) ListAccounts(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetClaims(r.Context())
	limit, offset := paginationFromQuery(r)

	accounts, err := s.accounts.List(r.Context(), claims.Scope(), limit, offset)
	if err != nil {
		middleware.GetLoggerFromContext(r.Context()).Error("Failed to list accounts", "error", err)
		InternalError("Failed to list accounts").Write(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AccountListResponse{
		Accounts:   accounts,
		Pagination: buildPaginationMeta(len(accounts), limit, offset),
	})
}

// CreateAccount registers an account. Department-scoped roles must name a
// department that exists.
func (s *Server) CreateAccount(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())

	var req CreateAccountRequest
	if !bind(w, r, &req) {
		return
	}

	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		ValidationErr("Unknown role", []ErrorDetail{{Field: "role", Message: "is not a known role"}}).
			Write(w, http.StatusBadRequest)
		return
	}
	if rbac.IsDepartmentScoped(role) && req.DepartmentID == "" {
		ValidationErr("Department required", []ErrorDetail{{Field: "department_id", Message: "is required for " + string(role)}}).
			Write(w, http.StatusBadRequest)
		return
	}
	if req.DepartmentID != "" {
		known, err := s.departmentExists(r, req.DepartmentID)
		if err != nil {
			logger.Error("Failed to check department", "error", err)
			InternalError("Failed to create account").Write(w, http.StatusInternalServerError)
			return
		}
		if !known {
			ValidationErr("Unknown department", []ErrorDetail{{Field: "department_id", Message: "does not exist"}}).
				Write(w, http.StatusBadRequest)
			return
		}
	}

	account, err := s.accounts.Create(r.Context(), identity.NewAccount{
		Email:        req.Email,
		EmployeeID:   req.EmployeeID,
		Credential:   req.Credential,
		Role:         role,
		DepartmentID: req.DepartmentID,
		ProfileRef:   req.ProfileRef,
	})
	if errors.Is(err, identity.ErrDuplicateAccount) {
		ConflictErr("Account with this email or employee id already exists").Write(w, http.StatusConflict)
		return
	}
	if err != nil {
		logger.Error("Failed to create account", "error", err)
		InternalError("Failed to create account").Write(w, http.StatusInternalServerError)
		return
	}

	logger.Info("Account created", "target_id", account.ID, "target_role", account.Role)
	writeJSON(w, http.StatusCreated, account)
}

// ChangeRole assigns a new role. A department-scoped role needs an account
// that already belongs to a department. Tokens already issued keep the old
// role until they expire unless revocation on role change is enabled.
func (s *Server) ChangeRole(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	claims, _ := auth.GetClaims(r.Context())

	target, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	if target == claims.AccountID {
		ConflictErr("You cannot change your own role").Write(w, http.StatusConflict)
		return
	}

	var req ChangeRoleRequest
	if !bind(w, r, &req) {
		return
	}
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		ValidationErr("Unknown role", []ErrorDetail{{Field: "role", Message: "is not a known role"}}).
			Write(w, http.StatusBadRequest)
		return
	}

	if rbac.IsDepartmentScoped(role) {
		account, err := s.accounts.FindByID(r.Context(), target)
		if errors.Is(err, identity.ErrAccountNotFound) {
			NotFound("account").Write(w, http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("Failed to load account", "target_id", target, "error", err)
			InternalError("Failed to change role").Write(w, http.StatusInternalServerError)
			return
		}
		if account.DepartmentID == "" {
			ValidationErr("Department required", []ErrorDetail{{Field: "department_id", Message: "is required for " + string(role)}}).
				Write(w, http.StatusBadRequest)
			return
		}
	}

	change, err := s.accounts.UpdateRole(r.Context(), target, role, claims.AccountID)
	if errors.Is(err, identity.ErrAccountNotFound) {
		NotFound("account").Write(w, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to change role", "target_id", target, "error", err)
		InternalError("Failed to change role").Write(w, http.StatusInternalServerError)
		return
	}

	resp := RoleChangeResponse{Account: change.Account, PreviousRole: change.Previous}
	if s.cfg.RevokeOnRoleChange && change.Previous != change.Account.Role {
		if err := s.auth.RevokeSubject(r.Context(), target); err != nil {
			logger.Error("Failed to revoke sessions after role change", "target_id", target, "error", err)
		} else {
			resp.SessionsRevoked = true
		}
	}

	logger.Info("Role changed", "target_id", target, "old_role", change.Previous, "new_role", change.Account.Role)
	s.notifier.RoleChanged(r.Context(), change, claims.AccountID)
	writeJSON(w, http.StatusOK, resp)
}

// DeactivateAccount disables the account and revokes every token it holds.
// The record is kept.
func (s *Server) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	claims, _ := auth.GetClaims(r.Context())

	target, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	if target == claims.AccountID {
		ConflictErr("You cannot deactivate your own account").Write(w, http.StatusConflict)
		return
	}

	account, err := s.accounts.Deactivate(r.Context(), target, claims.AccountID)
	if errors.Is(err, identity.ErrAccountNotFound) {
		NotFound("account").Write(w, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to deactivate account", "target_id", target, "error", err)
		InternalError("Failed to deactivate account").Write(w, http.StatusInternalServerError)
		return
	}

	if err := s.auth.RevokeSubject(r.Context(), target); err != nil {
		// refresh is already refused for inactive accounts; access tokens
		// live until expiry
		logger.Error("Failed to revoke sessions after deactivation", "target_id", target, "error", err)
		Unavailable().Write(w, http.StatusServiceUnavailable)
		return
	}

	logger.Info("Account deactivated", "target_id", target)
	s.notifier.Deactivated(r.Context(), account, claims.AccountID)
	writeJSON(w, http.StatusOK, account)
}

// RevokeSessions signs the account out everywhere.
func (s *Server) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())

	target, ok := accountIDParam(w, r)
	if !ok {
		return
	}

	if _, err := s.accounts.FindByID(r.Context(), target); err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			NotFound("account").Write(w, http.StatusNotFound)
			return
		}
		logger.Error("Failed to load account", "target_id", target, "error", err)
		InternalError("Failed to revoke sessions").Write(w, http.StatusInternalServerError)
		return
	}

	if err := s.auth.RevokeSubject(r.Context(), target); err != nil {
		logger.Error("Failed to revoke sessions", "target_id", target, "error", err)
		Unavailable().Write(w, http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func accountIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		NotFound("account").Write(w, http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) departmentExists(r *http.Request, id string) (bool, error) {
	departments, err := s.directory.ListDepartments(r.Context())
	if err != nil {
		return false, err
	}
	for _, d := range departments {
		if d.ID == id {
			return true, nil
		}
	}
	return false, nil
}
