package middlewares

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "techfest_backend/internals/helpers"
)

func newLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter covers every endpoint except the provider webhook, which
// has its own larger budget.
func GlobalRateLimiter() fiber.Handler {
	h := newLimiter(100, time.Minute, "Too many requests. Please try again later.")
	return func(c *fiber.Ctx) error {
		if isWebhook(c.Path()) {
			return c.Next()
		}
		return h(c)
	}
}

// LoginRateLimiter is stricter, for admin login.
func LoginRateLimiter() fiber.Handler {
	return newLimiter(5, time.Minute, "Too many login attempts. Try again in a minute.")
}

// RegisterRateLimiter guards registration and checkout.
func RegisterRateLimiter() fiber.Handler {
	return newLimiter(10, 5*time.Minute, "Too many registration attempts. Please wait a few minutes.")
}

// WebhookRateLimiter bounds webhook deliveries per source IP. Providers retry
// on 429, so a burst above it is delayed, not lost.
func WebhookRateLimiter() fiber.Handler {
	return newLimiter(300, time.Minute, "Too many webhook deliveries.")
}

func isWebhook(path string) bool {
	return strings.HasPrefix(path, "/api/payment-webhook")
}
