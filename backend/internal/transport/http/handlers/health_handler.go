package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
)

type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Get reports 200 while the process is up. Failing dependencies only mark the
// status degraded; the API keeps serving what it can without them.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok"}
	if len(h.checks) > 0 {
		resp.Dependencies = make(map[string]string, len(h.checks))
		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				resp.Dependencies[name] = "down"
				resp.Status = "degraded"
				continue
			}
			resp.Dependencies[name] = "up"
		}
	}

	httperrors.Write(w, http.StatusOK, resp)
}
