package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Cases          *handlers.CasesHandler
	RequesterCases *handlers.RequesterCasesHandler
	Attachments    *handlers.AttachmentsHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	requester := app.Group("/cases/:variant",
		cfg.AuthMiddleware.Handle, auth.RequireRequester())
	requester.Post("", cfg.RequesterCases.CreateCase)
	requester.Get("", cfg.RequesterCases.ListCases)
	requester.Get("/:id", cfg.RequesterCases.GetCase)
	requester.Post("/:id/comments", cfg.RequesterCases.AddComment)

	staff := app.Group("/staff/cases/:variant",
		cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Post("", cfg.Cases.CreateCase)
	staff.Get("", cfg.Cases.ListCases)
	staff.Get("/statuses", cfg.Cases.Statuses)
	staff.Get("/assignable", cfg.Staff.ListAssignable)
	staff.Get("/:id", cfg.Cases.GetCase)
	staff.Post("/:id/status", cfg.Cases.ChangeStatus)
	staff.Post("/:id/priority", cfg.Cases.ChangePriority)
	staff.Post("/:id/assign", cfg.Cases.Assign)
	staff.Post("/:id/comments", cfg.Cases.AddComment)
	staff.Post("/:id/convert",
		auth.RequireStaffRole(domain.StaffRoleTeamLead, domain.StaffRoleAdmin),
		cfg.Cases.Convert)
	staff.Post("/:id/attachments", cfg.Attachments.Upload)
	staff.Get("/attachments/:attachmentId", cfg.Attachments.Download)
	staff.Delete("/attachments/:attachmentId",
		auth.RequireStaffRole(domain.StaffRoleTeamLead, domain.StaffRoleAdmin),
		cfg.Attachments.Delete)

	directory := app.Group("/staff/directory",
		cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	directory.Get("", cfg.Staff.List)
}
