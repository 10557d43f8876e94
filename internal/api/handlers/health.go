package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/apex/log"
)

const readinessTimeout = 3 * time.Second

// HealthChecker reports whether an upstream dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	checker HealthChecker
	info    any
	logger  log.Interface
}

// NewHealthHandler builds the operational endpoints. info is served as-is
// on /version. A nil checker makes readiness always pass.
func NewHealthHandler(checker HealthChecker, info any, logger log.Interface) *HealthHandler {
	if logger == nil {
		logger = log.Log
	}
	return &HealthHandler{checker: checker, info: info, logger: logger}
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
}

// Ready handles GET /health/ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.checker.HealthCheck(ctx); err != nil {
			h.logger.WithError(err).Warn("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version handles GET /version.
func (h *HealthHandler) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}
