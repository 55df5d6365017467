package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/melee45/queueing-system/internal/observability"
)

// MetricsHandler exposes the in-memory counters for debugging.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler returns a new handler instance.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot dumps all counters.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
