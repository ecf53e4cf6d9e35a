// Package config manages application configuration for the Kinship API.
//
// Configuration comes from environment variables. When a .env file exists in
// the working directory it is applied first; variables already present in the
// environment take precedence.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// Validate reports every problem at once via errors.Join.
//
// # Configuration Groups
//
//   - ServerConfig: port, environment, log level, timeouts, CORS
//   - StorageConfig: STORAGE_BACKEND, either "surreal" or "postgres"
//   - DatabaseConfig: SurrealDB connection (DB_*)
//   - PostgresConfig: PostgreSQL DSN and pool (POSTGRES_*)
//   - JWTConfig: local access token signing (JWT_*)
//   - IdentityConfig: external identity provider (IDP_*)
//   - EmailConfig / SMSConfig: SMTP and Twilio channels
//   - BroadcastConfig: outbound message throttle
//   - RedisConfig: shared idempotency store; empty keeps it in memory
//   - RateLimitConfig: per-client HTTP limits
//   - JobsConfig: EVENT_COMPLETION_SCHEDULE (cron expression, default "@every 15m")
//   - AdminConfig: ADMIN_EMAILS promoted to admin on first sign-up
//
// Email, SMS, identity and Redis are optional. A partly configured channel is
// a validation error.
package config
