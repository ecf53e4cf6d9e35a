package handler

import (
	"context"
	"net/http"

	"github.com/forgo/kinship/api/internal/middleware"
	"github.com/forgo/kinship/api/internal/model"
	"github.com/forgo/kinship/api/internal/service"
)

// AuthService is the account API used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Sync(ctx context.Context, rawToken string, req model.SyncRequest) (*service.SyncResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.User, error)
	ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		WriteServiceError(w, r, err, "register")
		return
	}

	WriteData(w, http.StatusCreated, result, map[string]string{"self": "/api/auth/me"})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		WriteServiceError(w, r, err, "login")
		return
	}

	WriteData(w, http.StatusOK, result, map[string]string{"self": "/api/auth/me"})
}

// Sync handles POST /api/auth/sync. The bearer token is an identity-provider
// token that may not belong to a local account yet, so this route runs
// without the auth middleware.
func (h *AuthHandler) Sync(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		WriteError(w, model.NewUnauthorizedError("missing or invalid authorization header"))
		return
	}

	var req model.SyncRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.authService.Sync(r.Context(), token, req)
	if err != nil {
		WriteServiceError(w, r, err, "sync account")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	WriteData(w, status, result.User, map[string]string{"self": "/api/auth/me"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	user, err := h.authService.Me(r.Context(), p.UserID)
	if err != nil {
		WriteServiceError(w, r, err, "get account")
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{"self": "/api/auth/me"})
}

// UpdateMe handles PATCH /api/auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), p.UserID, req)
	if err != nil {
		WriteServiceError(w, r, err, "update account")
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{"self": "/api/auth/me"})
}

// ChangePassword handles POST /api/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), p.UserID, req); err != nil {
		WriteServiceError(w, r, err, "change password")
		return
	}

	WriteNoContent(w)
}
