package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 3 * time.Second

// Ping is the liveness probe.
func Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "pong!",
	})
}

// Readiness returns a handler that reports whether the backing store answers.
// A nil check always reports ready.
func Readiness(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
			defer cancel()

			if err := check(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  "unavailable",
					"message": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ready"})
	}
}
