package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportesys/helpdesk/internal/api/http/handlers"
	"github.com/soportesys/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Tickets   *handlers.TicketsHandler
	Users     *handlers.UsersHandler
	Principal *auth.Resolver
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	tickets := app.Group("/tickets", cfg.Principal.Handle)
	// Lookup routes must precede the ":id" routes or fiber matches them as ids.
	tickets.Get("/lookup/statuses", cfg.Tickets.ListStatuses)
	tickets.Get("/lookup/priorities", cfg.Tickets.ListPriorities)
	tickets.Get("/lookup/categories", cfg.Tickets.ListCategories)
	tickets.Get("/lookup/ticket-types", cfg.Tickets.ListTicketTypes)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	users := app.Group("/users", cfg.Principal.Handle)
	users.Get("/", cfg.Users.List)
	users.Patch("/me", cfg.Users.UpdateMe)
}
