package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/http/handlers"
	"github.com/spec-kit/issue-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthRateLimit  fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	if cfg.AuthRateLimit != nil {
		authGroup.Use(cfg.AuthRateLimit)
	}
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/accept-invitation", cfg.Auth.AcceptInvitation)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Get("/", cfg.Issues.List)
	issues.Post("/", cfg.Issues.Create)
	issues.Get("/export", cfg.Issues.Export)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Put("/:id", cfg.Issues.Update)
	issues.Delete("/:id", cfg.Issues.Delete)
	issues.Patch("/:id/status", cfg.Issues.ChangeStatus)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", cfg.Users.List)
	users.Post("/invite", auth.RequireAdminRole(), cfg.Users.Invite)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", auth.RequireAdminRole(), cfg.Users.Update)
	users.Delete("/:id", auth.RequireAdminRole(), cfg.Users.Delete)
}
