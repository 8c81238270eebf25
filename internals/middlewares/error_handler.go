package middlewares

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	helper "techfest_backend/internals/helpers"
	"techfest_backend/internals/logging"
)

// ErrorHandler is the fiber.Config ErrorHandler: every unhandled error gets
// the standard JSON error shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		logging.From(c).Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	return helper.JsonError(c, code, msg)
}
