package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/logging"
	"github.com/optitalent/hr-backend/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { logging.SetLogger(nil) })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestRequestContext_RequestID(t *testing.T) {
	var seen string
	h := RequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("inbound kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "edge-42")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "edge-42", seen)
	})
}

func TestLoggingMiddleware_ReportsCaller(t *testing.T) {
	buf := captureLogs(t)
	accountID := uuid.New()

	// claims are attached inside the chain, after the logger has started
	inner := AnnotateCaller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetLoggerFromContext(r.Context()).Info("handling")
		w.WriteHeader(http.StatusNoContent)
	}))
	withClaims := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &auth.TokenClaims{AccountID: accountID, Role: rbac.RoleHR}
		inner.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims, rbac.DefaultTable())))
	})
	h := RequestContext(LoggingMiddleware(withClaims))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "handling", lines[0]["msg"])
	assert.Equal(t, accountID.String(), lines[0]["account_id"])
	assert.Equal(t, "10.0.0.7", lines[0]["client_ip"])

	assert.Equal(t, "Request completed successfully", lines[1]["msg"])
	assert.Equal(t, float64(http.StatusNoContent), lines[1]["status"])
	assert.Equal(t, accountID.String(), lines[1]["account_id"])
	assert.Equal(t, "hr", lines[1]["role"])
}

func TestLoggingMiddleware_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
		msg    string
	}{
		{http.StatusOK, "INFO", "Request completed successfully"},
		{http.StatusNotFound, "WARN", "Request completed with client error"},
		{http.StatusForbidden, "WARN", "Request denied"},
		{http.StatusUnauthorized, "WARN", "Request denied"},
		{http.StatusServiceUnavailable, "ERROR", "Request failed closed"},
		{http.StatusInternalServerError, "ERROR", "Request completed with server error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			buf := captureLogs(t)
			h := RequestContext(LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			lines := logLines(t, buf)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.level, lines[0]["level"])
			assert.Equal(t, tt.msg, lines[0]["msg"])
			assert.NotContains(t, lines[0], "account_id")
		})
	}
}

func TestCORS_ExposesRequestID(t *testing.T) {
	h := NewCORSHandler(&config.CORSConfig{
		AllowedOrigins: []string{"https://app.optitalent.io"},
		AllowedMethods: []string{"GET"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.optitalent.io")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.optitalent.io", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers")), "x-request-id")
}
