package handler

import (
	"context"
	"net/http"

	"github.com/forgo/kinship/api/internal/model"
)

// VolunteerService is the volunteer signup API used by VolunteerHandler
type VolunteerService interface {
	SignUp(ctx context.Context, p *model.Principal, eventID string, req model.VolunteerSignupRequest) (*model.Volunteer, error)
	Cancel(ctx context.Context, p *model.Principal, eventID string) error
	ListByEvent(ctx context.Context, eventID string) ([]*model.Volunteer, error)
	ListMine(ctx context.Context, p *model.Principal) ([]*model.Volunteer, error)
}

// VolunteerHandler handles volunteer signups
type VolunteerHandler struct {
	volunteers VolunteerService
}

// NewVolunteerHandler creates a new volunteer handler
func NewVolunteerHandler(volunteers VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{volunteers: volunteers}
}

// SignUp handles POST /api/events/{eventId}/volunteers
func (h *VolunteerHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.VolunteerSignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	eventID := r.PathValue("eventId")
	v, err := h.volunteers.SignUp(r.Context(), p, eventID, req)
	if err != nil {
		WriteServiceError(w, r, err, "volunteer signup")
		return
	}
	WriteData(w, http.StatusCreated, v, map[string]string{
		"event":  "/api/events/" + eventID,
		"cancel": "/api/events/" + eventID + "/volunteers/me",
	})
}

// ListByEvent handles GET /api/events/{eventId}/volunteers
func (h *VolunteerHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	volunteers, err := h.volunteers.ListByEvent(r.Context(), r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, r, err, "list volunteers")
		return
	}
	WriteCollection(w, volunteers, nil)
}

// CancelMine handles DELETE /api/events/{eventId}/volunteers/me
func (h *VolunteerHandler) CancelMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.volunteers.Cancel(r.Context(), p, r.PathValue("eventId")); err != nil {
		WriteServiceError(w, r, err, "cancel volunteer signup")
		return
	}
	WriteNoContent(w)
}

// ListMine handles GET /api/volunteers/mine
func (h *VolunteerHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	volunteers, err := h.volunteers.ListMine(r.Context(), p)
	if err != nil {
		WriteServiceError(w, r, err, "list volunteer signups")
		return
	}
	WriteCollection(w, volunteers, nil)
}
