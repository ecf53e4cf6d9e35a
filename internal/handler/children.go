package handler

import (
	"context"
	"net/http"

	"github.com/forgo/kinship/api/internal/model"
)

// ChildService is the child API used by ChildHandler
type ChildService interface {
	List(ctx context.Context, p *model.Principal) ([]*model.Child, error)
	Create(ctx context.Context, p *model.Principal, req model.CreateChildRequest) (*model.Child, error)
	Get(ctx context.Context, p *model.Principal, childID string) (*model.Child, error)
	Update(ctx context.Context, p *model.Principal, childID string, req model.UpdateChildRequest) (*model.Child, error)
	Delete(ctx context.Context, p *model.Principal, childID string) error
}

// ChildHandler handles a parent's children
type ChildHandler struct {
	children ChildService
}

// NewChildHandler creates a new child handler
func NewChildHandler(children ChildService) *ChildHandler {
	return &ChildHandler{children: children}
}

func childLinks(c *model.Child) map[string]string {
	return map[string]string{
		"self":          "/api/children/" + c.ID,
		"registrations": "/api/participants/mine",
	}
}

// List handles GET /api/children
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	children, err := h.children.List(r.Context(), p)
	if err != nil {
		WriteServiceError(w, r, err, "list children")
		return
	}
	WriteCollection(w, children, nil)
}

// Create handles POST /api/children
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.CreateChildRequest
	if !decodeBody(w, r, &req) {
		return
	}

	child, err := h.children.Create(r.Context(), p, req)
	if err != nil {
		WriteServiceError(w, r, err, "create child")
		return
	}
	WriteData(w, http.StatusCreated, child, childLinks(child))
}

// Get handles GET /api/children/{childId}
func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	child, err := h.children.Get(r.Context(), p, r.PathValue("childId"))
	if err != nil {
		WriteServiceError(w, r, err, "get child")
		return
	}
	WriteData(w, http.StatusOK, child, childLinks(child))
}

// Update handles PATCH /api/children/{childId}
func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.UpdateChildRequest
	if !decodeBody(w, r, &req) {
		return
	}

	child, err := h.children.Update(r.Context(), p, r.PathValue("childId"), req)
	if err != nil {
		WriteServiceError(w, r, err, "update child")
		return
	}
	WriteData(w, http.StatusOK, child, childLinks(child))
}

// Delete handles DELETE /api/children/{childId}
func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.children.Delete(r.Context(), p, r.PathValue("childId")); err != nil {
		WriteServiceError(w, r, err, "delete child")
		return
	}
	WriteNoContent(w)
}
