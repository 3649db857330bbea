package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/newsviews/pkg/database"
)

// HealthHandler reports service health; the database section appears only when configured
type HealthHandler struct {
	db      *database.DB
	service string
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db *database.DB, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

// Check returns server health status
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": h.service,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, err := h.db.HealthCheck(ctx)
		resp["database"] = status
		if err != nil {
			resp["status"] = "degraded"
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
