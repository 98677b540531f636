package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/middleware"
	"github.com/optitalent/hr-backend/internal/observability"
	"github.com/optitalent/hr-backend/internal/rbac"
)

type LoginRequest struct {
	// Identifier is an email address or employee id.
	Identifier string `json:"identifier" validate:"required,max=254"`
	Credential string `json:"credential" validate:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AccountSummary struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	EmployeeID   string    `json:"employee_id"`
	Role         rbac.Role `json:"role"`
	DepartmentID string    `json:"department_id,omitempty"`
}

type SessionResponse struct {
	auth.TokenPair
	Account AccountSummary  `json:"account"`
	Menu    []rbac.MenuItem `json:"menu"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if !bind(w, r, &req) {
		return
	}

	session, err := s.auth.Authenticate(r.Context(), req.Identifier, req.Credential)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.metrics.RecordLogin(observability.LoginRejected)
		logger.Warn("Login rejected")
		InvalidCredentials().Write(w, http.StatusUnauthorized)
		return
	case errors.Is(err, auth.ErrUnavailable):
		s.metrics.RecordLogin(observability.LoginFailed)
		logger.Error("Login unavailable", "error", err)
		Unavailable().Write(w, http.StatusServiceUnavailable)
		return
	case err != nil:
		s.metrics.RecordLogin(observability.LoginFailed)
		logger.Error("Login failed", "error", err)
		InternalError("An unexpected error occurred.").Write(w, http.StatusInternalServerError)
		return
	}

	s.metrics.RecordLogin(observability.LoginSucceeded)
	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !bind(w, r, &req) {
		return
	}

	session, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if errors.Is(err, auth.ErrRefreshInvalid) {
		NewError(auth.CodeTokenExpiredOrInvalid, auth.RejectInvalidToken.Message).Write(w, http.StatusUnauthorized)
		return
	}
	if err != nil {
		middleware.GetLoggerFromContext(r.Context()).Error("Refresh failed", "error", err)
		Unavailable().Write(w, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, s.sessionResponse(session))
}

// Logout ends the caller's session. The body is optional; when it names a
// refresh token that token is dropped too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetClaims(r.Context())

	var req LogoutRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		ValidationErr("Request body is not valid JSON", nil).Write(w, http.StatusBadRequest)
		return
	}

	if err := s.auth.Logout(r.Context(), claims, req.RefreshToken); err != nil {
		middleware.GetLoggerFromContext(r.Context()).Error("Logout failed", "error", err)
		Unavailable().Write(w, http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionResponse(session *auth.Session) SessionResponse {
	a := session.Account
	return SessionResponse{
		TokenPair: session.Tokens,
		Account: AccountSummary{
			ID:           a.ID,
			Email:        a.Email,
			EmployeeID:   a.EmployeeID,
			Role:         session.Claims.Role,
			DepartmentID: session.Claims.DepartmentID,
		},
		Menu: rbac.ResolveMenu(s.policy.Table(), session.Claims.Role),
	}
}
