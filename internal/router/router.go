package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devmate-kr/devmate-api/internal/config"
	"github.com/devmate-kr/devmate-api/internal/handler"
	"github.com/devmate-kr/devmate-api/internal/middleware"
	"github.com/devmate-kr/devmate-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InterviewHandler *handler.InterviewHandler
	UserHandler      *handler.UserHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.InterviewHandler != nil {
		interviews := api.Group("/interviews", jwtMiddleware,
			middleware.RateLimit("evaluate", cfg.EvaluateRateLimit, time.Minute))
		deps.InterviewHandler.Register(interviews)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", jwtMiddleware)
		deps.UserHandler.Register(users)
	}
}
