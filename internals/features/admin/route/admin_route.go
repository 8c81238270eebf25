package route

import (
	"github.com/gofiber/fiber/v2"

	"techfest_backend/internals/features/admin/controller"
)

// AdminRoutes mounts login, then returns the guarded /admin group for other
// features to extend. Login is registered first so the guard never sees it.
func AdminRoutes(api fiber.Router, h *controller.AdminController, guard []fiber.Handler, loginMW ...fiber.Handler) fiber.Router {
	api.Post("/admin/login", append(loginMW, h.Login)...)

	admin := api.Group("/admin", guard...)
	admin.Post("/logout", h.Logout)

	regs := admin.Group("/registrations")
	regs.Get("/", h.ListRegistrations)
	regs.Patch("/:id/participation", h.SetParticipation)

	admin.Post("/confirm/:orderId", h.Confirm)
	return admin
}
