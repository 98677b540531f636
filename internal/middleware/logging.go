package middleware

import (
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingMiddleware logs one line per request. 401, 403 and 503 are the
// guard's denials and are logged with their own message so they can be
// told apart from ordinary client errors.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		logger := GetLoggerFromContext(r.Context())
		logAttrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if c, ok := r.Context().Value(callerKey).(*caller); ok {
			if accountID, role := c.get(); accountID != "" {
				logAttrs = append(logAttrs, "account_id", accountID, "role", role)
			}
		}

		switch status := wrapped.statusCode; {
		case status == http.StatusServiceUnavailable:
			logger.Error("Request failed closed", logAttrs...)
		case status >= 500:
			logger.Error("Request completed with server error", logAttrs...)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			logger.Warn("Request denied", logAttrs...)
		case status >= 400:
			logger.Warn("Request completed with client error", logAttrs...)
		default:
			logger.Info("Request completed successfully", logAttrs...)
		}
	})
}
