package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by the postgres and redis connections.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]HealthChecker
}

func NewHealthHandler(db, redis HealthChecker) *HealthHandler {
	checks := make(map[string]HealthChecker, 2)
	if db != nil {
		checks["database"] = db
	}
	if redis != nil {
		checks["redis"] = redis
	}
	return &HealthHandler{checks: checks}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}
