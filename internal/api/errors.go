package api

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/middleware"
)

const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeResourceNotFound   = auth.CodeResourceNotFound
	CodeForbidden          = auth.CodeForbidden
	CodeUnavailable        = auth.CodeAuthorizationUnavailable
	CodeConflict           = "CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeGenerationFailed   = "GENERATION_FAILED"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
)

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// additional error context
type ErrorContext map[string]interface{}

type errorPayload struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
	Context ErrorContext  `json:"context,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

// builder pattern
type ErrorBuilder struct {
	Code    string
	Message string
	Details []ErrorDetail
	Context ErrorContext
}

func NewError(code, message string) *ErrorBuilder {
	return &ErrorBuilder{Code: code, Message: message}
}

func (e *ErrorBuilder) WithDetails(details []ErrorDetail) *ErrorBuilder {
	e.Details = details
	return e
}

func (e *ErrorBuilder) WithContext(context ErrorContext) *ErrorBuilder {
	e.Context = context
	return e
}

func (e *ErrorBuilder) Create() ErrorResponse {
	return ErrorResponse{Error: errorPayload{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Context: e.Context,
	}}
}

// Write sends the error with the given status.
func (e *ErrorBuilder) Write(w http.ResponseWriter, status int) {
	writeJSON(w, status, e.Create())
}

// builder pattern extensions

func InvalidCredentials() *ErrorBuilder {
	return NewError(CodeInvalidCredentials, "Invalid credentials")
}

func Forbidden() *ErrorBuilder {
	return NewError(CodeForbidden, auth.RejectForbidden.Message)
}

func Unavailable() *ErrorBuilder {
	return NewError(CodeUnavailable, auth.RejectUnavailable.Message)
}

func NotFound(resource string) *ErrorBuilder {
	return NewError(CodeResourceNotFound, resource+" not found")
}

func ValidationErr(msg string, details []ErrorDetail) *ErrorBuilder {
	return NewError(CodeValidationError, msg).WithDetails(details)
}

func InternalError(msg string) *ErrorBuilder {
	return NewError(CodeInternalError, msg)
}

func ConflictErr(msg string) *ErrorBuilder {
	return NewError(CodeConflict, msg)
}

// validationDetails flattens validator errors into per-field details.
func validationDetails(err error) []ErrorDetail {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ErrorDetail{{Field: "body", Message: err.Error()}}
	}
	details := make([]ErrorDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, ErrorDetail{
			Field:   fe.Field(),
			Message: "failed on the '" + fe.Tag() + "' rule",
		})
	}
	return details
}

// RejectionResponder writes guard rejections in the API error shape and
// logs them with the request logger.
func RejectionResponder(w http.ResponseWriter, r *http.Request, rej auth.Rejection) {
	middleware.GetLoggerFromContext(r.Context()).Warn("Guard rejected request",
		"code", rej.Code,
		"method", r.Method,
		"path", r.URL.Path)
	NewError(rej.Code, rej.Message).Write(w, rej.Status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes and validates a JSON body, writing a 400 and returning false
// on failure.
func bind(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeJSON(w, r, v); err != nil {
		ValidationErr("Request body is not valid JSON", []ErrorDetail{{Field: "body", Message: err.Error()}}).
			Write(w, http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(v); err != nil {
		ValidationErr("Request body failed validation", validationDetails(err)).Write(w, http.StatusBadRequest)
		return false
	}
	return true
}
