package handler

import (
	"context"
	"net/http"

	"github.com/forgo/kinship/api/internal/model"
)

// AnnouncementService is the announcement API used by AnnouncementHandler
type AnnouncementService interface {
	List(ctx context.Context, p *model.Principal, includeInactive bool) ([]*model.Announcement, error)
	Get(ctx context.Context, p *model.Principal, id string) (*model.Announcement, error)
	Create(ctx context.Context, p *model.Principal, req model.CreateAnnouncementRequest) (*model.Announcement, error)
	Update(ctx context.Context, id string, req model.UpdateAnnouncementRequest) (*model.Announcement, error)
	Delete(ctx context.Context, id string) error
}

// AnnouncementHandler handles announcement endpoints
type AnnouncementHandler struct {
	announcements AnnouncementService
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(announcements AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// List handles GET /api/announcements. Admins may pass include_inactive=true.
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	items, err := h.announcements.List(r.Context(), p, includeInactive)
	if err != nil {
		WriteServiceError(w, r, err, "list announcements")
		return
	}
	WriteCollection(w, items, nil)
}

// Get handles GET /api/announcements/{id}
func (h *AnnouncementHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	a, err := h.announcements.Get(r.Context(), p, r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, err, "get announcement")
		return
	}
	WriteData(w, http.StatusOK, a, map[string]string{"self": "/api/announcements/" + a.ID})
}

// Create handles POST /api/announcements
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.CreateAnnouncementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := h.announcements.Create(r.Context(), p, req)
	if err != nil {
		WriteServiceError(w, r, err, "create announcement")
		return
	}
	WriteData(w, http.StatusCreated, a, map[string]string{"self": "/api/announcements/" + a.ID})
}

// Update handles PATCH /api/announcements/{id}
func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateAnnouncementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a, err := h.announcements.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		WriteServiceError(w, r, err, "update announcement")
		return
	}
	WriteData(w, http.StatusOK, a, map[string]string{"self": "/api/announcements/" + a.ID})
}

// Delete handles DELETE /api/announcements/{id}
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.announcements.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, r, err, "delete announcement")
		return
	}
	WriteNoContent(w)
}
