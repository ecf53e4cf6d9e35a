package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgo/kinship/api/internal/database"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health returns a handler that pings the database
func Health(db database.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "down"})
			return
		}
		WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "up"})
	}
}
