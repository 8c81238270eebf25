package route

import (
	"github.com/gofiber/fiber/v2"

	"techfest_backend/internals/features/payments/controller"
)

// PaymentRoutes mounts the public payment endpoints under /api.
func PaymentRoutes(api fiber.Router, h *controller.PaymentController) {
	api.Post("/create-order", h.CreateOrder)
	api.Post("/payment-status", h.PaymentStatus)
	api.Post("/payment-status/sync", h.SyncPaymentStatus)

	wh := api.Group("/payment-webhook")
	wh.Post("/", h.Webhook)
	wh.Post("/midtrans", h.MidtransWebhook)
}

// PaymentAdminRoutes expects an already guarded /api/admin group.
func PaymentAdminRoutes(admin fiber.Router, h *controller.PaymentController) {
	ev := admin.Group("/gateway-events")
	ev.Get("/", h.ListGatewayEvents)
	ev.Get("/:id", h.GetGatewayEvent)
}
