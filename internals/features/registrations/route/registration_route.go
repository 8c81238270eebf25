package route

import (
	"github.com/gofiber/fiber/v2"

	"techfest_backend/internals/features/registrations/controller"
)

// RegistrationRoutes mounts the participant-facing endpoints under /api.
func RegistrationRoutes(api fiber.Router, h *controller.RegistrationController) {
	api.Post("/registrations", h.Register)
	api.Post("/checkout", h.Checkout)

	t := api.Group("/tickets")
	t.Get("/:orderId", h.GetTicket)
	t.Get("/:orderId/qr", h.GetTicketQR)
}

// RegistrationAdminRoutes expects admin to be behind the admin guard.
func RegistrationAdminRoutes(admin fiber.Router, h *controller.RegistrationController) {
	admin.Post("/spot-registrations", h.RegisterSpot)
}
