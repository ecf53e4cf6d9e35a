package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/internal/service"
)

type fakeAuthenticator struct {
	principal *model.Principal
	err       error
	gotToken  string
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	f.gotToken = token
	return f.principal, f.err
}

func okHandler(seen **model.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = GetPrincipal(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

// ============================================================================
// Auth Tests
// ============================================================================

func TestAuth_ValidToken_StoresPrincipal(t *testing.T) {
	t.Parallel()

	auth := &fakeAuthenticator{principal: &model.Principal{UserID: "user:p1", Role: model.RoleParent, Source: "local"}}
	var seen *model.Principal

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rr := httptest.NewRecorder()
	Auth(auth)(okHandler(&seen)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if auth.gotToken != "tok-123" {
		t.Errorf("expected token tok-123, got %q", auth.gotToken)
	}
	if seen == nil || seen.UserID != "user:p1" {
		t.Errorf("expected principal user:p1 in context, got %+v", seen)
	}
}

func TestAuth_HeaderProblems_Return401(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic abc"},
		{"no token", "Bearer "},
		{"single part", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auth := &fakeAuthenticator{principal: &model.Principal{UserID: "user:x"}}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			Auth(auth)(okHandler(nil)).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rr.Code)
			}
			if auth.gotToken != "" {
				t.Error("authenticator should not be called")
			}
		})
	}
}

func TestAuth_AuthenticatorErrors_MapToProblems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"expired", service.ErrTokenExpired, http.StatusUnauthorized},
		{"invalid", service.ErrTokenInvalid, http.StatusUnauthorized},
		{"not linked", service.ErrAccountNotLinked, http.StatusUnauthorized},
		{"wrapped expired", errors.Join(errors.New("idp"), service.ErrTokenExpired), http.StatusUnauthorized},
		{"unexpected", errors.New("database down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer t")
			rr := httptest.NewRecorder()
			Auth(&fakeAuthenticator{err: tt.err})(okHandler(nil)).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

// ============================================================================
// RequireRole Tests
// ============================================================================

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		principal  *model.Principal
		roles      []model.UserRole
		wantStatus int
	}{
		{"no principal", nil, []model.UserRole{model.RoleAdmin}, http.StatusUnauthorized},
		{"wrong role", &model.Principal{UserID: "u", Role: model.RoleParent}, []model.UserRole{model.RoleAdmin}, http.StatusForbidden},
		{"matching role", &model.Principal{UserID: "u", Role: model.RoleAdmin}, []model.UserRole{model.RoleAdmin}, http.StatusOK},
		{"one of several", &model.Principal{UserID: "u", Role: model.RoleVolunteer}, []model.UserRole{model.RoleParent, model.RoleVolunteer}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.principal))
			}
			rr := httptest.NewRecorder()
			RequireRole(tt.roles...)(okHandler(nil)).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestAdminAuth_Parent_Forbidden(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req = req.WithContext(WithPrincipal(req.Context(), &model.Principal{UserID: "u", Role: model.RoleParent}))
	rr := httptest.NewRecorder()
	AdminAuth()(okHandler(nil)).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}
}

// ============================================================================
// Context Helper Tests
// ============================================================================

func TestBearerToken_TrimsWhitespace(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer   abc  ")

	token, ok := BearerToken(req)
	if !ok || token != "abc" {
		t.Errorf("expected (abc, true), got (%q, %v)", token, ok)
	}
}

func TestGetUserID_NoPrincipal_ReturnsEmpty(t *testing.T) {
	t.Parallel()

	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
