package handler

import (
	"context"
	"net/http"

	"github.com/forgo/kinship/api/internal/model"
)

// UserService is the admin user API used by UsersHandler
type UserService interface {
	List(ctx context.Context, role model.UserRole) ([]*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	SetRole(ctx context.Context, actor *model.Principal, userID string, req model.SetRoleRequest) (*model.User, error)
	Delete(ctx context.Context, actor *model.Principal, userID string) error
}

// UsersHandler handles admin user management
type UsersHandler struct {
	users UserService
}

// NewUsersHandler creates a new admin users handler
func NewUsersHandler(users UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /api/admin/users?role=
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), model.UserRole(r.URL.Query().Get("role")))
	if err != nil {
		WriteServiceError(w, r, err, "list users")
		return
	}
	WriteCollection(w, users, nil)
}

// Get handles GET /api/admin/users/{userId}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, r, err, "get user")
		return
	}
	WriteData(w, http.StatusOK, user, map[string]string{"self": "/api/admin/users/" + user.ID})
}

// SetRole handles PATCH /api/admin/users/{userId}/role
func (h *UsersHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.SetRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.SetRole(r.Context(), p, r.PathValue("userId"), req)
	if err != nil {
		WriteServiceError(w, r, err, "set role")
		return
	}
	WriteData(w, http.StatusOK, user, map[string]string{"self": "/api/admin/users/" + user.ID})
}

// Delete handles DELETE /api/admin/users/{userId}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), p, r.PathValue("userId")); err != nil {
		WriteServiceError(w, r, err, "delete user")
		return
	}
	WriteNoContent(w)
}
