package hosting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/features/jobs"
	"github.com/contre95/soulsearch/src/features/metrics"
	"github.com/contre95/soulsearch/src/features/searching"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server. metricsHandler may be nil when metrics
// are disabled.
func NewServer(cfg *config.Manager, searchHandler *searching.Handler, jobService *jobs.Service, metricsHandler *metrics.Handler) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= 500 {
				slog.Error("Internal Server Error", "error", err)
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Soulsearch",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(recover.New())
	app.Use(LogRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	config.RegisterRoutes(app, cfg)
	jobs.RegisterRoutes(app, jobService)
	searching.RegisterRoutes(app, searchHandler)
	if metricsHandler != nil {
		metrics.RegisterRoutes(app, metricsHandler)
	}

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// App exposes the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "port", s.port)
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
