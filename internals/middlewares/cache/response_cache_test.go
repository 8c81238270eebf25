package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCacheHitAndMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	app := fiber.New()
	app.Get("/events", ResponseCache(rdb, "events", time.Minute), func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"calls": calls})
	})
	app.Get("/missing", ResponseCache(rdb, "events", time.Minute), func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusNotFound).SendString("nope")
	})

	get := func(path string) (*http.Response, string) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return resp, string(b)
	}

	resp, body := get("/events")
	assert.Equal(t, "MISS", resp.Header.Get(HeaderCache))
	assert.JSONEq(t, `{"calls":1}`, body)

	resp, body = get("/events")
	assert.Equal(t, "HIT", resp.Header.Get(HeaderCache))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"calls":1}`, body)

	resp, _ = get("/events?page=2")
	assert.Equal(t, "MISS", resp.Header.Get(HeaderCache))
	assert.Equal(t, 2, calls)

	get("/missing")
	resp, _ = get("/missing")
	assert.Empty(t, resp.Header.Get(HeaderCache))
	assert.Equal(t, 4, calls)

	n, err := Purge(context.Background(), rdb, "events")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	resp, _ = get("/events")
	assert.Equal(t, "MISS", resp.Header.Get(HeaderCache))
}

func TestResponseCacheWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Get("/events", ResponseCache(nil, "events", time.Minute), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/events", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(HeaderCache))
}
