package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/auth"
	"github.com/optitalent/hr-backend/internal/logging"
)

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	loggerKey    contextKey = "logger"
	callerKey    contextKey = "caller"
)

const RequestIDHeader = "X-Request-ID"

// caller is filled in by AnnotateCaller once the guard has run, so
// LoggingMiddleware can report who made the request.
type caller struct {
	mu        sync.Mutex
	accountID string
	role      string
}

func (c *caller) set(accountID, role string) {
	c.mu.Lock()
	c.accountID, c.role = accountID, role
	c.mu.Unlock()
}

func (c *caller) get() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountID, c.role
}

// RequestContext adds a request ID, client IP and request-scoped logger to
// the context. An inbound X-Request-ID is kept.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, requestIDKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		ctx = context.WithValue(ctx, callerKey, &caller{})

		logger := logging.With(
			"request_id", requestID,
			"client_ip", getClientIP(r),
		)
		ctx = context.WithValue(ctx, loggerKey, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AnnotateCaller records the authenticated account on the request logger.
// It must run after the guard has attached claims.
func AnnotateCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetClaims(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		accountID, role := claims.AccountID.String(), string(claims.Role)
		if c, ok := r.Context().Value(callerKey).(*caller); ok {
			c.set(accountID, role)
		}

		logger := GetLoggerFromContext(r.Context()).With("account_id", accountID, "role", role)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey, logger)))
	})
}

func GetLoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
