package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Auth       AuthConfig
	Guard      GuardConfig
	RBAC       RBACConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
	AWS        AWSConfig
	Generation GenerationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MinSigningKeyLength is the shortest HS256 key the API accepts.
const MinSigningKeyLength = 32

var ErrSigningKeyMissing = errors.New("JWT_SIGNING_KEY must be set")

type JWTConfig struct {
	SigningKey string
	Issuer     string
	Expiry     time.Duration
}

type AuthConfig struct {
	RefreshExpiry time.Duration
	LookupTimeout time.Duration
	// RevokeOnRoleChange invalidates live tokens when an admin changes a role.
	// Off by default: a role change then applies on the next login or refresh.
	RevokeOnRoleChange bool
}

type GuardConfig struct {
	LookupTimeout time.Duration
}

type RBACConfig struct {
	PolicyFile  string
	WatchPolicy bool
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type RateLimitConfig struct {
	LoginRequests int
	LoginWindow   time.Duration
}

type LoggingConfig struct {
	Level      string
	Format     string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string
	FromEmail       string
}

type GenerationConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "optitalent"),
			SSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", ""),
			Issuer:     getEnv("JWT_ISSUER", "optitalent"),
			Expiry:     getEnvDuration("JWT_EXPIRY", 15*time.Minute),
		},
		Auth: AuthConfig{
			RefreshExpiry:      getEnvDuration("AUTH_REFRESH_EXPIRY", 7*24*time.Hour),
			LookupTimeout:      getEnvDuration("AUTH_LOOKUP_TIMEOUT", 3*time.Second),
			RevokeOnRoleChange: getEnvBool("AUTH_REVOKE_ON_ROLE_CHANGE", false),
		},
		Guard: GuardConfig{
			LookupTimeout: getEnvDuration("GUARD_LOOKUP_TIMEOUT", 500*time.Millisecond),
		},
		RBAC: RBACConfig{
			PolicyFile:  getEnv("RBAC_POLICY_FILE", ""),
			WatchPolicy: getEnvBool("RBAC_WATCH_POLICY", false),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getEnvList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvList("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			ExposedHeaders:   getEnvList("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvInt("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			LoginRequests: getEnvInt("RATE_LIMIT_LOGIN_REQUESTS", 10),
			LoginWindow:   getEnvDuration("RATE_LIMIT_LOGIN_WINDOW", time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			Filename:   getEnv("LOG_FILE", "logs/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			EndpointURL:     getEnv("AWS_ENDPOINT_URL", ""),
			FromEmail:       getEnv("AWS_SES_FROM_EMAIL", "no-reply@optitalent.com"),
		},
		Generation: GenerationConfig{
			BaseURL: getEnv("GENERATION_BASE_URL", ""),
			APIKey:  getEnv("GENERATION_API_KEY", ""),
			Timeout: getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),
		},
	}
}

// Validate refuses to sign tokens with a missing or short key.
func (c *JWTConfig) Validate() error {
	if c.SigningKey == "" {
		return ErrSigningKeyMissing
	}
	if len(c.SigningKey) < MinSigningKeyLength {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least %d bytes, got %d", MinSigningKeyLength, len(c.SigningKey))
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
