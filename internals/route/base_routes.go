package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	database "techfest_backend/internals/databases"
)

func BaseRoutes(app *fiber.App, d Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("techfest backend is running")
	})

	health := func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status, httpStatus := "OK", fiber.StatusOK
		dbStatus := "Connected"
		if d.DB == nil || database.Ping(ctx, d.DB) != nil {
			dbStatus = "Database connection error"
			status, httpStatus = "DOWN", fiber.StatusServiceUnavailable
		}

		redisStatus := "Disabled"
		if d.Redis != nil {
			redisStatus = "Connected"
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				// cache and outbox degrade, the API keeps serving
				redisStatus = "Unreachable"
			}
		}

		out := fiber.Map{
			"status":         status,
			"database":       dbStatus,
			"redis":          redisStatus,
			"gateway":        d.Gateways.Active != nil && configured(d.Gateways.Active),
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    d.Config.Env,
		}
		if d.Outbox != nil {
			if n, err := d.Outbox.Len(ctx); err == nil {
				out["outbox_pending"] = n
			}
		}
		return c.Status(httpStatus).JSON(out)
	}
	app.Get("/health", health)
	app.Get("/api/health", health)
}

func configured(p any) bool {
	if c, ok := p.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}
