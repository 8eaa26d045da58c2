package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const probeTimeout = 3 * time.Second

// pinger is satisfied by the result cache; a backend without a remote
// dependency answers immediately.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and health endpoints.
type HealthHandler struct {
	cache   pinger
	version string
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler. A nil cache means caching is
// disabled and is reported as such.
func NewHealthHandler(cache pinger, version string) *HealthHandler {
	return &HealthHandler{cache: cache, version: version, now: time.Now}
}

// HealthResponse is the JSON body of /live, /ready and /health.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Live always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: h.now()})
}

// Ready returns 503 while the cache backend is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	comp := h.checkCache(r.Context())
	status := http.StatusOK
	if comp.Status == "down" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: overall(comp), Timestamp: h.now()})
}

// Health reports per-component status with latency and the build version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	comp := h.checkCache(r.Context())
	status := http.StatusOK
	if comp.Status == "down" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:     overall(comp),
		Version:    h.version,
		Components: map[string]CompStatus{"cache": comp},
		Timestamp:  h.now(),
	})
}

func (h *HealthHandler) checkCache(ctx context.Context) CompStatus {
	if h.cache == nil {
		return CompStatus{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	if err := h.cache.Ping(ctx); err != nil {
		return CompStatus{Status: "down", Error: err.Error()}
	}
	return CompStatus{Status: "ok", Latency: time.Since(start).String()}
}

func overall(c CompStatus) string {
	if c.Status == "down" {
		return "down"
	}
	return "ok"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
