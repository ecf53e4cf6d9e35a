package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgo/kinship/api/internal/model"
)

// broadcastWriteTimeout replaces the server write timeout for a broadcast,
// whose throttled fan-out can run for minutes.
const broadcastWriteTimeout = 35 * time.Minute

// MessagingService is the broadcast API used by BroadcastHandler
type MessagingService interface {
	Broadcast(ctx context.Context, sender *model.Principal, req model.BroadcastMessageRequest) (*model.BroadcastMessageResponse, error)
	Categories(ctx context.Context, eventID string) ([]model.CategorySummary, error)
}

// BroadcastHandler handles admin broadcasts
type BroadcastHandler struct {
	messaging MessagingService
}

// NewBroadcastHandler creates a new broadcast handler
func NewBroadcastHandler(messaging MessagingService) *BroadcastHandler {
	return &BroadcastHandler{messaging: messaging}
}

// Send handles POST /api/admin/broadcast. Partial delivery still returns 200;
// the body's status and failures describe what went wrong.
func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req model.BroadcastMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(broadcastWriteTimeout)); err != nil {
		slog.Debug("broadcast write deadline not extended", slog.String("error", err.Error()))
	}

	resp, err := h.messaging.Broadcast(r.Context(), p, req)
	if err != nil {
		WriteServiceError(w, r, err, "broadcast")
		return
	}
	WriteData(w, http.StatusOK, resp, nil)
}

// Categories handles GET /api/admin/broadcast/categories?event_id=
func (h *BroadcastHandler) Categories(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.messaging.Categories(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		WriteServiceError(w, r, err, "list broadcast categories")
		return
	}
	WriteCollection(w, summaries, nil)
}
