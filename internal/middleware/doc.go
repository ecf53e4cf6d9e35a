// Package middleware provides the HTTP middleware chain for the Kinship API.
//
// Every request passes through RequestID, Logger, Recovery, CORS, metrics
// and Compress. Protected routes add Auth, which resolves the bearer token
// into a model.Principal, and RequireRole/AdminAuth for role checks:
//
//	protected := middleware.Auth(authService)
//	mux.Handle("GET /api/children", protected(h.ListChildren))
//	mux.Handle("GET /api/admin/users", middleware.Chain(h.ListUsers, protected, middleware.AdminAuth()))
//
// Handlers read the caller with GetPrincipal or GetUserID.
//
// # Rate Limiting
//
// RateLimit keeps a token bucket per user (or client IP for anonymous
// requests) and reports X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset. Denied requests get 429 with Retry-After.
//
// # Idempotency
//
// POST and PATCH requests carrying an Idempotency-Key header are run once per
// (caller, key, method, path, body). Repeats receive the stored response with
// X-Idempotency-Replayed: true. IdempotencyStore keeps results in process;
// RedisIdempotencyStore shares them between instances.
package middleware
