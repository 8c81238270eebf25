package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(time.Second))
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		assert.True(t, ok)
		return c.SendString(c.Locals("request_id").(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	rid := resp.Header.Get(HeaderRequestID)
	assert.Len(t, rid, 36)
	assert.Equal(t, rid, string(body))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))
}

func TestErrorHandlerShape(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(RecoveryMiddleware())
	app.Get("/forbidden", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "nope") })
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"nope","error_code":"FORBIDDEN"}`, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGlobalLimiterSkipsWebhook(t *testing.T) {
	app := fiber.New()
	app.Use(GlobalRateLimiter())
	app.Post("/api/payment-webhook", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 120; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/payment-webhook", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestWebhookLimiterHasItsOwnBudget(t *testing.T) {
	app := fiber.New()
	app.Use(GlobalRateLimiter())
	app.Use("/api/payment-webhook", WebhookRateLimiter())
	app.Post("/api/payment-webhook/midtrans", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 300; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/payment-webhook/midtrans", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, "delivery %d", i)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/payment-webhook/midtrans", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
