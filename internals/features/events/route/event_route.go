package route

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"techfest_backend/internals/features/events/controller"
	"techfest_backend/internals/middlewares/cache"
)

const CacheNamespace = "events"

// EventRoutes mounts the read-only event endpoints, cached in Redis when rdb is set.
func EventRoutes(api fiber.Router, h *controller.EventController, rdb redis.UniversalClient, ttl time.Duration) {
	ev := api.Group("/events", cache.ResponseCache(rdb, CacheNamespace, ttl))
	ev.Get("/", h.List)
	ev.Get("/:slug", h.GetBySlug)
}
