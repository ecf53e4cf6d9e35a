package handler

import (
	"context"
	"net/http"

	"github.com/forgo/kinship/api/internal/model"
)

// ParticipantService is the registration API used by ParticipantHandler
type ParticipantService interface {
	Register(ctx context.Context, p *model.Principal, eventID string, req model.RegisterParticipantRequest) (*model.Participant, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error)
	ListMine(ctx context.Context, p *model.Principal) ([]*model.Participant, error)
	Cancel(ctx context.Context, p *model.Principal, participantID string) error
}

// ParticipantHandler handles child registrations for events
type ParticipantHandler struct {
	participants ParticipantService
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(participants ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

// Register handles POST /api/events/{eventId}/participants
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.RegisterParticipantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	eventID := r.PathValue("eventId")
	participant, err := h.participants.Register(r.Context(), p, eventID, req)
	if err != nil {
		WriteServiceError(w, r, err, "register participant")
		return
	}
	WriteData(w, http.StatusCreated, participant, map[string]string{
		"self":  "/api/participants/" + participant.ID,
		"event": "/api/events/" + eventID,
	})
}

// ListByEvent handles GET /api/events/{eventId}/participants
func (h *ParticipantHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	participants, err := h.participants.ListByEvent(r.Context(), r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, r, err, "list participants")
		return
	}
	WriteCollection(w, participants, nil)
}

// ListMine handles GET /api/participants/mine
func (h *ParticipantHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	participants, err := h.participants.ListMine(r.Context(), p)
	if err != nil {
		WriteServiceError(w, r, err, "list registrations")
		return
	}
	WriteCollection(w, participants, nil)
}

// Cancel handles DELETE /api/participants/{participantId}
func (h *ParticipantHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.participants.Cancel(r.Context(), p, r.PathValue("participantId")); err != nil {
		WriteServiceError(w, r, err, "cancel registration")
		return
	}
	WriteNoContent(w)
}
