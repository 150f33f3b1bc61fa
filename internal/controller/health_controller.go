package controller

import (
	"context"
	"net/http"
	"time"
)

// PingFunc checks that a dependency is reachable.
type PingFunc func(ctx context.Context) error

type HealthController struct {
	db      PingFunc
	redis   PingFunc
	gateway func() string
}

// NewHealthController creates a HealthController. gateway reports the circuit
// breaker state of the payment gateway and may be nil.
func NewHealthController(db, redis PingFunc, gateway func() string) *HealthController {
	return &HealthController{db: db, redis: redis, gateway: gateway}
}

// Health reports the process as up. An open gateway breaker is shown but does
// not fail the check.
func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if h.gateway != nil {
		resp["gateway"] = h.gateway()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	if err := h.redis(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "redis unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
