package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techfest_backend/internals/configs"
	"techfest_backend/internals/databases/dbtest"
	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/features/payments/gateway"
	"techfest_backend/internals/middlewares"
	"techfest_backend/internals/middlewares/auth"
)

func newApp(t *testing.T, cfg configs.Config) *fiber.App {
	t.Helper()
	db := dbtest.Open(t)
	cat, err := catalog.Default()
	require.NoError(t, err)
	require.NoError(t, db.Create(cat.Models()).Error)

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	SetupRoutes(app, Deps{
		Config:   cfg,
		DB:       db,
		Catalog:  cat,
		Gateways: gateway.FromConfig(cfg.Payment),
	})
	return app
}

func get(t *testing.T, app *fiber.App, method, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestHealthAndEvents(t *testing.T) {
	app := newApp(t, configs.Config{Env: "test"})

	code, body := get(t, app, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code, body)
	var h map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	assert.Equal(t, "OK", h["status"])
	assert.Equal(t, "Disabled", h["redis"])
	assert.Equal(t, false, h["gateway"])

	code, body = get(t, app, http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "code-loom")
}

func TestCreateOrderWithoutCredentials(t *testing.T) {
	app := newApp(t, configs.Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/create-order",
		strings.NewReader(`{"orderId":"ORDER_1710000000000_abc123xyz","orderAmount":"100","customerName":"Asha Rao","customerEmail":"asha@college.edu","eventName":"Code Loom"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Payment gateway not configured")
}

func TestAdminGuard(t *testing.T) {
	app := newApp(t, configs.Config{})
	code, _ := get(t, app, http.MethodGet, "/api/admin/registrations", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	cfg := configs.Config{Admin: configs.AdminConfig{JWTSecret: "s3", TokenTTL: time.Hour}}
	app = newApp(t, cfg)
	code, _ = get(t, app, http.MethodGet, "/api/admin/gateway-events", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	tok, _, err := auth.IssueToken("s3", "admin@fest.in", auth.RoleAdmin, time.Hour, time.Now())
	require.NoError(t, err)
	code, body := get(t, app, http.MethodGet, "/api/admin/gateway-events", tok)
	assert.Equal(t, http.StatusOK, code, body)
	code, body = get(t, app, http.MethodGet, "/api/admin/registrations", tok)
	assert.Equal(t, http.StatusOK, code, body)

	// webhooks stay public
	code, _ = get(t, app, http.MethodPost, "/api/payment-webhook", "")
	assert.Equal(t, http.StatusOK, code)
}
