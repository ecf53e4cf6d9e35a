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

// Storage backends
const (
	BackendSurreal  = "surreal"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Identity  IdentityConfig
	Email     EmailConfig
	SMS       SMSConfig
	Broadcast BroadcastConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Admin     AdminConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend string
}

// PostgresConfig holds PostgreSQL settings
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	ExpirationMins int
	Issuer         string
}

// IdentityConfig holds external identity provider settings
type IdentityConfig struct {
	ProjectID string
	CertsURL  string
	Issuer    string
}

// Enabled reports whether identity-provider sign-in is configured
func (c IdentityConfig) Enabled() bool {
	return c.ProjectID != ""
}

// EmailConfig holds SMTP settings
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
	Timeout  time.Duration
}

// Enabled reports whether the email channel is configured
func (c EmailConfig) Enabled() bool {
	return c.Host != ""
}

// SMSConfig holds Twilio settings
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Timeout    time.Duration
}

// Enabled reports whether the SMS channel is configured
func (c SMSConfig) Enabled() bool {
	return c.AccountSID != ""
}

// BroadcastConfig holds outbound messaging settings
type BroadcastConfig struct {
	RatePerSec float64
	Burst      int
}

// RedisConfig holds Redis settings. An empty Addr keeps idempotency in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// RateLimitConfig holds per-client HTTP rate limit settings
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// JobsConfig holds scheduled job settings
type JobsConfig struct {
	EventCompletionSchedule string
	Timeout                 time.Duration
}

// AdminConfig holds bootstrap admin settings
type AdminConfig struct {
	Emails []string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendSurreal)),
		},
		Postgres: PostgresConfig{
			DSN:             getEnv("POSTGRES_DSN", ""),
			MaxOpenConns:    getIntEnv("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getIntEnv("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getBoolEnv("POSTGRES_AUTO_MIGRATE", true),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "kinship"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		JWT: JWTConfig{
			PrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			ExpirationMins: getIntEnv("JWT_EXPIRATION_MINS", 60),
			Issuer:         getEnv("JWT_ISSUER", "kinship.forgo.software"),
		},
		Identity: IdentityConfig{
			ProjectID: getEnv("IDP_PROJECT_ID", ""),
			CertsURL:  getEnv("IDP_CERTS_URL", ""),
			Issuer:    getEnv("IDP_ISSUER", ""),
		},
		Email: EmailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			StartTLS: getBoolEnv("SMTP_STARTTLS", true),
			Timeout:  getDurationEnv("SMTP_TIMEOUT", 10*time.Second),
		},
		SMS: SMSConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			From:       getEnv("TWILIO_FROM", ""),
			BaseURL:    getEnv("TWILIO_BASE_URL", ""),
			Timeout:    getDurationEnv("TWILIO_TIMEOUT", 10*time.Second),
		},
		Broadcast: BroadcastConfig{
			RatePerSec: getFloatEnv("BROADCAST_RATE_PER_SEC", 10),
			Burst:      getIntEnv("BROADCAST_BURST", 1),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Window:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			Burst:    getIntEnv("RATE_LIMIT_BURST", 20),
		},
		Jobs: JobsConfig{
			EventCompletionSchedule: getEnv("EVENT_COMPLETION_SCHEDULE", "@every 15m"),
			Timeout:                 getDurationEnv("JOB_TIMEOUT", 2*time.Minute),
		},
		Admin: AdminConfig{
			Emails: getSliceEnv("ADMIN_EMAILS", nil),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be 'debug', 'info', 'warn', or 'error', got '%s'", c.Server.LogLevel))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Storage validation
	switch c.Storage.Backend {
	case BackendSurreal:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORAGE_BACKEND is 'postgres'"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be 'surreal' or 'postgres', got '%s'", c.Storage.Backend))
	}

	// JWT validation - critical for production
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	// Channel validation - if a channel is partly configured, it must be complete
	if c.Email.IsConfigured() {
		if err := c.Email.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("SMTP: %w", err))
		}
	}
	if c.SMS.IsConfigured() {
		if err := c.SMS.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("Twilio: %w", err))
		}
	}

	if c.Broadcast.RatePerSec < 0 {
		errs = append(errs, errors.New("BROADCAST_RATE_PER_SEC must not be negative"))
	}
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.Jobs.EventCompletionSchedule == "" {
		errs = append(errs, errors.New("EVENT_COMPLETION_SCHEDULE is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IsConfigured returns true if any SMTP field is set
func (e EmailConfig) IsConfigured() bool {
	return e.Host != "" || e.Username != "" || e.From != ""
}

// Validate checks that all required SMTP fields are present
func (e EmailConfig) Validate() error {
	var missing []string
	if e.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if e.From == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if e.Username != "" && e.Password == "" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("SMTP_PORT out of range: %d", e.Port)
	}
	return nil
}

// IsConfigured returns true if any Twilio field is set
func (s SMSConfig) IsConfigured() bool {
	return s.AccountSID != "" || s.AuthToken != "" || s.From != ""
}

// Validate checks that all required Twilio fields are present
func (s SMSConfig) Validate() error {
	var missing []string
	if s.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if s.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if s.From == "" {
		missing = append(missing, "TWILIO_FROM")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
