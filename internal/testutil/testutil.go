package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request represents a test HTTP request
type Request struct {
	Method      string
	Path        string
	Body        interface{}
	Headers     map[string]string
	QueryParams map[string]string
}

// Response represents a test HTTP response
type Response struct {
	*httptest.ResponseRecorder
	Body map[string]interface{}
}

// Serve runs req against handler in-process and decodes a JSON object body.
func Serve(t *testing.T, handler http.Handler, req Request) *Response {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		require.NoError(t, err, "Failed to marshal request body")
		body = bytes.NewReader(raw)
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, body)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if len(req.QueryParams) > 0 {
		q := httpReq.URL.Query()
		for key, value := range req.QueryParams {
			q.Add(key, value)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httpReq)

	var responseBody map[string]interface{}
	if recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &responseBody); err != nil {
			t.Logf("Response body is not a JSON object: %v", err)
		}
	}

	return &Response{
		ResponseRecorder: recorder,
		Body:             responseBody,
	}
}

// ServeAs runs req with a bearer token.
func ServeAs(t *testing.T, handler http.Handler, req Request, token string) *Response {
	t.Helper()
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	req.Headers["Authorization"] = "Bearer " + token
	return Serve(t, handler, req)
}

// ErrorCode returns error.code from an error envelope.
func (r *Response) ErrorCode() string {
	envelope, _ := r.Body["error"].(map[string]interface{})
	code, _ := envelope["code"].(string)
	return code
}

// AssertError checks the status and error code of a rejected request.
func AssertError(t *testing.T, resp *Response, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.Code, resp.ResponseRecorder.Body.String())
	assert.Equal(t, code, resp.ErrorCode())
}
