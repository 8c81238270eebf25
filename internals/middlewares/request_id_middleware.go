package middlewares

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"

	"techfest_backend/internals/logging"
)

const HeaderRequestID = "X-Request-ID"

// RequestID echoes or generates X-Request-ID, stores a request-scoped logger,
// and bounds the handler's UserContext with timeout.
func RequestID(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := strings.TrimSpace(c.Get(HeaderRequestID))
		if rid == "" || len(rid) > 128 {
			rid = utils.UUID()
		}
		c.Set(HeaderRequestID, rid)
		c.Locals("request_id", rid)
		logging.WithRequest(c, logging.Logger.With().Str("request_id", rid).Logger())

		if timeout > 0 {
			ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
			defer cancel()
			c.SetUserContext(ctx)
		}
		return c.Next()
	}
}
