package searching

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registers the searching routes with the Fiber app.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")
	api.Post("/search", handler.Search)
	api.Post("/analyze", handler.Analyze)
	api.Post("/filters/validate", handler.ValidateFilter)
	api.Post("/extract", handler.Extract)
	api.Post("/batch", handler.StartBatch)
	api.Get("/cache/:trackId", handler.GetCached)
}
