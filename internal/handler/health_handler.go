package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/workshop-availability-api/internal/service"
	"github.com/noah-isme/workshop-availability-api/pkg/response"
)

// ReadyCheck probes one dependency.
type ReadyCheck func(ctx context.Context) error

// HealthHandler exposes observability endpoints.
type HealthHandler struct {
	metrics *service.MetricsService
	checks  map[string]ReadyCheck
	timeout time.Duration
}

// NewHealthHandler constructs a health handler. checks are evaluated by Ready.
func NewHealthHandler(metrics *service.MetricsService, checks map[string]ReadyCheck) *HealthHandler {
	return &HealthHandler{metrics: metrics, checks: checks, timeout: 2 * time.Second}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether every dependency answers.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		response.ServiceUnavailable(c, results)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
}
