package metrics

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the metrics routes with the Fiber app.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/metrics", handler.Export)
	app.Get("/api/metrics", handler.GetSummary)
}
