// Package health exposes a liveness probe backed by the storage backend.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-portal/internal/utils/response"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Status is the body of GET /api/health.
type Status struct {
	Status string `json:"status"`
}

// Check returns 200 {"status":"ok"} when the backend answers a ping and
// 503 {"status":"degraded"} when it does not.
func Check(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, Status{Status: "degraded"})
			return
		}
		response.WriteJSON(w, http.StatusOK, Status{Status: "ok"})
	}
}
