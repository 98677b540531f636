package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/optitalent/hr-backend/internal/config"
)

// NewCORSHandler exposes the request ID header so the frontend can quote
// it when reporting a denial.
func NewCORSHandler(cfg *config.CORSConfig) func(http.Handler) http.Handler {
	exposed := append([]string{RequestIDHeader}, cfg.ExposedHeaders...)
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposed,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
