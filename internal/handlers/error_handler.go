package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// NewErrorHandler renders every error returned by a handler as
// {"message": ...}. *fiber.Error values keep their code and message; anything
// else is logged and reported as a 500 without leaking details.
func NewErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(messageResponse{Message: fe.Message})
		}

		log.Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("unhandled request error")

		return c.Status(fiber.StatusInternalServerError).JSON(messageResponse{
			Message: "Internal Server Error",
		})
	}
}
