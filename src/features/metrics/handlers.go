package metrics

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler handles HTTP requests for the metrics feature.
type Handler struct {
	service  *Service
	exporter fiber.Handler
}

// NewHandler creates a new metrics handler.
func NewHandler(service *Service, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		service:  service,
		exporter: adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
	}
}

// Export serves the Prometheus text exposition format.
func (h *Handler) Export(c *fiber.Ctx) error {
	return h.exporter(c)
}

// GetSummary returns the soulsearch counters as JSON.
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	slog.Debug("GetSummary handler called")
	summary, err := h.service.Summary()
	if err != nil {
		slog.Error("Error gathering metrics", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "error gathering metrics"})
	}
	return c.JSON(summary)
}
