package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"techfest_backend/internals/configs"
	"techfest_backend/internals/middlewares/logger"
)

// RequestTimeout bounds UserContext; it matches the DB statement_timeout plus the provider call.
const RequestTimeout = 20 * time.Second

func SetupMiddlewares(app *fiber.App, cfg configs.Config) {
	app.Use(RequestID(RequestTimeout))
	app.Use(RecoveryMiddleware())
	app.Use(logger.LoggerMiddleware(""))
	app.Use(CorsMiddleware(cfg.CorsOrigins))
	app.Use(GlobalRateLimiter())
}
