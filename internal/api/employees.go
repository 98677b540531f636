package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/middleware"
)

type EmployeeListResponse struct {
	Employees  []directory.Employee `json:"employees"`
	Pagination PaginationMeta       `json:"pagination"`
}

type CreateEmployeeRequest struct {
	Code         string `json:"code" validate:"required,max=32"`
	FullName     string `json:"full_name" validate:"required,max=200"`
	Email        string `json:"email" validate:"omitempty,email"`
	Title        string `json:"title" validate:"max=120"`
	DepartmentID string `json:"department_id" validate:"required"`
	HiredOn      string `json:"hired_on" validate:"omitempty,datetime=2006-01-02"`
}

// ListEmployees lists the employees the caller's scope can see. Managers
// and team leaders only ever get their own department, and are refused
// when their token carries none.
func (s *Server) ListEmployees(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetClaims(r.Context())
	scope := claims.Scope()
	if scope.Scoped() && scope.DepartmentID() == "" {
		Forbidden().Write(w, http.StatusForbidden)
		return
	}
	limit, offset := paginationFromQuery(r)
	q := r.URL.Query()

	employees, err := s.directory.ListEmployees(r.Context(), scope, directory.Filter{
		DepartmentID: q.Get("department"),
		Search:       q.Get("q"),
		Limit:        limit,
		Offset:       offset,
	})
	if errors.Is(err, directory.ErrDepartmentOutScope) {
		Forbidden().Write(w, http.StatusForbidden)
		return
	}
	if err != nil {
		middleware.GetLoggerFromContext(r.Context()).Error("Failed to list employees", "error", err)
		InternalError("Failed to list employees").Write(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, EmployeeListResponse{
		Employees:  employees,
		Pagination: buildPaginationMeta(len(employees), limit, offset),
	})
}

// GetEmployee runs after RequireDepartment has confirmed the record exists
// and is in scope.
func (s *Server) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		NotFound("employee").Write(w, http.StatusNotFound)
		return
	}

	employee, err := s.directory.GetEmployee(r.Context(), id)
	if errors.Is(err, directory.ErrEmployeeNotFound) {
		NotFound("employee").Write(w, http.StatusNotFound)
		return
	}
	if err != nil {
		middleware.GetLoggerFromContext(r.Context()).Error("Failed to get employee", "error", err)
		InternalError("Failed to get employee").Write(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

func (s *Server) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !bind(w, r, &req) {
		return
	}

	claims, _ := auth.GetClaims(r.Context())
	if !claims.Scope().Permits(req.DepartmentID) {
		Forbidden().Write(w, http.StatusForbidden)
		return
	}

	in := directory.NewEmployee{
		Code:         req.Code,
		FullName:     req.FullName,
		Email:        req.Email,
		Title:        req.Title,
		DepartmentID: req.DepartmentID,
	}
	if req.HiredOn != "" {
		// format already checked by the datetime rule
		hired, _ := time.Parse("2006-01-02", req.HiredOn)
		in.HiredOn = &hired
	}

	employee, err := s.directory.CreateEmployee(r.Context(), in)
	switch {
	case errors.Is(err, directory.ErrDuplicateEmployee):
		ConflictErr("Employee code already exists").Write(w, http.StatusConflict)
		return
	case errors.Is(err, directory.ErrUnknownDepartment):
		ValidationErr("Unknown department", []ErrorDetail{{Field: "department_id", Message: "does not exist"}}).
			Write(w, http.StatusBadRequest)
		return
	case err != nil:
		middleware.GetLoggerFromContext(r.Context()).Error("Failed to create employee", "error", err)
		InternalError("Failed to create employee").Write(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, employee)
}

func (s *Server) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := s.directory.ListDepartments(r.Context())
	if err != nil {
		middleware.GetLoggerFromContext(r.Context()).Error("Failed to list departments", "error", err)
		InternalError("Failed to list departments").Write(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"departments": departments})
}

// employeeDepartment resolves the department of {employeeID} for the
// guard. A malformed id is reported as a missing record.
func (s *Server) employeeDepartment(r *http.Request) (string, bool, error) {
	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		return "", false, nil
	}
	employee, err := s.directory.GetEmployee(r.Context(), id)
	if errors.Is(err, directory.ErrEmployeeNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return employee.DepartmentID, true, nil
}
