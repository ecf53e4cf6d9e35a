package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/forgo/kinship/api/internal/model"
)

// EventService is the event API used by EventHandler
type EventService interface {
	List(ctx context.Context, p *model.Principal, upcoming bool) ([]*model.Event, error)
	Get(ctx context.Context, p *model.Principal, eventID string) (*model.EventDetail, error)
	Create(ctx context.Context, p *model.Principal, req model.CreateEventRequest) (*model.Event, error)
	Update(ctx context.Context, eventID string, req model.UpdateEventRequest) (*model.EventDetail, error)
	Cancel(ctx context.Context, eventID string) (*model.Event, error)
	Delete(ctx context.Context, eventID string) error
}

// EventHandler handles event endpoints
type EventHandler struct {
	events EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

func eventLinks(id string) map[string]string {
	return map[string]string{
		"self":         "/api/events/" + id,
		"participants": "/api/events/" + id + "/participants",
		"volunteers":   "/api/events/" + id + "/volunteers",
	}
}

// List handles GET /api/events?upcoming=true
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	upcoming := false
	if v := r.URL.Query().Get("upcoming"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, model.NewBadRequestError("upcoming must be true or false"))
			return
		}
		upcoming = parsed
	}

	events, err := h.events.List(r.Context(), p, upcoming)
	if err != nil {
		WriteServiceError(w, r, err, "list events")
		return
	}
	WriteCollection(w, events, nil)
}

// Get handles GET /api/events/{eventId}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	detail, err := h.events.Get(r.Context(), p, r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, r, err, "get event")
		return
	}
	WriteData(w, http.StatusOK, detail, eventLinks(detail.ID))
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := h.events.Create(r.Context(), p, req)
	if err != nil {
		WriteServiceError(w, r, err, "create event")
		return
	}
	WriteData(w, http.StatusCreated, event, eventLinks(event.ID))
}

// Update handles PATCH /api/events/{eventId}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	detail, err := h.events.Update(r.Context(), r.PathValue("eventId"), req)
	if err != nil {
		WriteServiceError(w, r, err, "update event")
		return
	}
	WriteData(w, http.StatusOK, detail, eventLinks(detail.ID))
}

// Cancel handles POST /api/events/{eventId}/cancel
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Cancel(r.Context(), r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, r, err, "cancel event")
		return
	}
	WriteData(w, http.StatusOK, event, eventLinks(event.ID))
}

// Delete handles DELETE /api/events/{eventId}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), r.PathValue("eventId")); err != nil {
		WriteServiceError(w, r, err, "delete event")
		return
	}
	WriteNoContent(w)
}
