package server

import (
	"context"

	"usersvc/internal/handlers"
	"usersvc/internal/middleware"
	"usersvc/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	UserService *services.UserService
	// Ready reports whether the backing store is reachable. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger zerolog.Logger
}

// New builds the Fiber app with middleware and every route registered.
func New(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "users",
		DisableStartupMessage: true,
		ErrorHandler:          handlers.NewErrorHandler(deps.Logger),
	})

	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(deps.Logger))
	// Inside the request logger so recovered panics still get a log line.
	app.Use(recover.New())

	app.Get("/ping", handlers.Ping)
	app.Get("/health/ready", handlers.Readiness(deps.Ready))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.NewUserHandler(deps.UserService).RegisterRoutes(app)

	return app
}
