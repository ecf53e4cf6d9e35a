package handler

import (
	"context"
	"net/http"

	"github.com/forgo/kinship/api/internal/model"
)

// InboxService is the in-app message API used by InboxHandler
type InboxService interface {
	List(ctx context.Context, p *model.Principal, unreadOnly bool) ([]*model.InboxMessage, error)
	UnreadCount(ctx context.Context, p *model.Principal) (int, error)
	MarkRead(ctx context.Context, p *model.Principal, id string) (*model.InboxMessage, error)
	Delete(ctx context.Context, p *model.Principal, id string) error
}

// InboxHandler handles the caller's in-app messages
type InboxHandler struct {
	inbox InboxService
}

// NewInboxHandler creates a new inbox handler
func NewInboxHandler(inbox InboxService) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

// List handles GET /api/inbox?unread=true
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	messages, err := h.inbox.List(r.Context(), p, r.URL.Query().Get("unread") == "true")
	if err != nil {
		WriteServiceError(w, r, err, "list inbox")
		return
	}
	WriteCollection(w, messages, map[string]string{"unread_count": "/api/inbox/unread-count"})
}

// UnreadCount handles GET /api/inbox/unread-count
func (h *InboxHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	n, err := h.inbox.UnreadCount(r.Context(), p)
	if err != nil {
		WriteServiceError(w, r, err, "count unread messages")
		return
	}
	WriteData(w, http.StatusOK, model.UnreadCount{Unread: n}, nil)
}

// MarkRead handles POST /api/inbox/{messageId}/read
func (h *InboxHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	msg, err := h.inbox.MarkRead(r.Context(), p, r.PathValue("messageId"))
	if err != nil {
		WriteServiceError(w, r, err, "mark message read")
		return
	}
	WriteData(w, http.StatusOK, msg, nil)
}

// Delete handles DELETE /api/inbox/{messageId}
func (h *InboxHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.inbox.Delete(r.Context(), p, r.PathValue("messageId")); err != nil {
		WriteServiceError(w, r, err, "delete message")
		return
	}
	WriteNoContent(w)
}
