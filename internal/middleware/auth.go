package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/internal/service"
)

// Authenticator resolves a bearer token into a principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Principal, error)
}

const principalSlotKey contextKey = "principalSlot"

// principalSlot lets outer middleware (the request logger) see the
// principal resolved further down the chain
type principalSlot struct {
	principal *model.Principal
}

// Auth returns a middleware that requires a valid local or identity-provider token
func Auth(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != nil {
				problem.WriteJSON(w)
				return
			}

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				authProblem(r, err).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects principals whose role is not listed. Must run after Auth.
func RequireRole(roles ...model.UserRole) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			model.NewForbiddenError("your role does not allow this action").WriteJSON(w)
		})
	}
}

// AdminAuth restricts a route to administrators
func AdminAuth() Middleware {
	return RequireRole(model.RoleAdmin)
}

// BearerToken returns the raw bearer token of a request
func BearerToken(r *http.Request) (string, bool) {
	token, problem := bearerToken(r)
	return token, problem == nil
}

func bearerToken(r *http.Request) (string, *model.ProblemDetails) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", model.NewUnauthorizedError("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", model.NewUnauthorizedError("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func authProblem(r *http.Request, err error) *model.ProblemDetails {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return model.NewTokenExpiredError()
	case errors.Is(err, service.ErrAccountNotLinked):
		return model.NewAccountNotLinkedError()
	case errors.Is(err, service.ErrTokenInvalid):
		return model.NewUnauthorizedError("invalid token")
	}
	slog.Error("authentication failed",
		slog.String("error", err.Error()),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	return model.NewInternalError("An unexpected error occurred")
}

// WithPrincipal stores the principal in the context
func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	if slot, ok := ctx.Value(principalSlotKey).(*principalSlot); ok {
		slot.principal = p
	}
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipal extracts the authenticated principal from context
func GetPrincipal(ctx context.Context) *model.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*model.Principal); ok {
		return p
	}
	return nil
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.UserID
	}
	return ""
}
