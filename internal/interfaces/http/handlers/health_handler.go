package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
)

// ComponentChecker reports whether one infrastructure dependency is healthy.
type ComponentChecker func(ctx context.Context) error

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers map[string]ComponentChecker
	timeout  time.Duration
	logger   logging.Logger
}

// NewHealthHandler constructs a HealthHandler over the given component
// checkers (postgres, redis, minio, ...).
func NewHealthHandler(checkers map[string]ComponentChecker, logger logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HealthHandler{
		checkers: checkers,
		timeout:  5 * time.Second,
		logger:   logger.Named("http.health"),
	}
}

// Liveness reports that the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness checks every registered component and returns 503 when any is
// unhealthy.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	components := make(map[string]string, len(h.checkers))
	healthy := true
	for name, check := range h.checkers {
		if err := check(ctx); err != nil {
			healthy = false
			components[name] = "down"
			h.logger.Warn("readiness check failed",
				logging.String("component", name), logging.Err(err))
		} else {
			components[name] = "up"
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":     overall,
		"components": components,
	})
}
