package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Health serves liveness and readiness. Optional dependencies (Redis,
// PostgreSQL) degrade readiness but the relay keeps serving without them.
type Health struct {
	Version string
	Checks  map[string]Check
	Timeout time.Duration
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Live always reports healthy while the process serves HTTP.
func (h *Health) Live(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{Status: "healthy", Version: h.Version})
}

// Ready runs every check. A failing check marks the relay degraded; the
// status code stays 200 because the core path needs none of them.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	resp := healthResponse{Status: "healthy", Version: h.Version, Checks: map[string]string{}}
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeHealth(w, http.StatusOK, resp)
}

func writeHealth(w http.ResponseWriter, status int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
