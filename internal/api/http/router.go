package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-portal/internal/api/http/handlers"
	"github.com/spec-kit/complaint-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Complaints      *handlers.ComplaintsHandler
	Admin           *handlers.AdminHandler
	AdminMiddleware *auth.AdminMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/complaints", cfg.Complaints.Submit)
	api.Get("/complaints/:code", cfg.Complaints.Track)

	app.Post("/auth/admin/login", cfg.Admin.Login)

	adminGroup := api.Group("/admin", cfg.AdminMiddleware.Handle)
	adminGroup.Get("/complaints", cfg.Admin.ListComplaints)
	adminGroup.Get("/complaints/:id", cfg.Admin.GetComplaint)
	adminGroup.Patch("/complaints/:id/status", cfg.Admin.UpdateStatus)
	adminGroup.Get("/stats", cfg.Admin.Stats)
}
