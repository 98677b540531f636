package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Middleware(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/employees/{employeeID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/employees/42", nil))

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/employees/{employeeID}", "403"))
	assert.Equal(t, float64(1), got)
}

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics()

	m.RecordGuardDecision("employees", OutcomeForbidden)
	m.RecordGuardDecision("employees", OutcomeForbidden)
	m.RecordGuardDecision("", OutcomeAllowed)
	m.RecordLogin(LoginRejected)
	m.SetPolicyVersion("v1")
	m.SetPolicyVersion("v2")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.guardDecisions.WithLabelValues("employees", OutcomeForbidden)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.guardDecisions.WithLabelValues("authenticated", OutcomeAllowed)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.logins.WithLabelValues(LoginRejected)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.policyVersion))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	m.RecordGuardDecision("employees", OutcomeAllowed)
	m.RecordLogin(LoginSucceeded)
	m.SetPolicyVersion("v1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordLogin(LoginSucceeded)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hr_logins_total{outcome="succeeded"} 1`)
}
