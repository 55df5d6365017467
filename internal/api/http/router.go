package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/melee45/queueing-system/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Tickets    *handlers.TicketsHandler
	Categories *handlers.CategoriesHandler
	Events     *handlers.EventsHandler
	Metrics    *handlers.MetricsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	app.Post("/tickets", cfg.Tickets.Create)
	app.Get("/tickets", cfg.Tickets.List)
	app.Get("/tickets/latest", cfg.Tickets.Latest)
	app.Patch("/tickets/:id/status", cfg.Tickets.UpdateStatus)

	app.Get("/categories", cfg.Categories.List)
	app.Get("/events", cfg.Events.Stream)
}
