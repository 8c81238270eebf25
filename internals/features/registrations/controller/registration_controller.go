package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	payController "techfest_backend/internals/features/payments/controller"
	"techfest_backend/internals/features/registrations/dto"
	"techfest_backend/internals/features/registrations/repository"
	"techfest_backend/internals/features/registrations/service"
	"techfest_backend/internals/features/registrations/ticket"
	helper "techfest_backend/internals/helpers"
	"techfest_backend/internals/logging"
)

type RegistrationController struct {
	Service      *service.Service
	AdminBaseURL string
}

func NewRegistrationController(s *service.Service, adminBaseURL string) *RegistrationController {
	return &RegistrationController{Service: s, AdminBaseURL: adminBaseURL}
}

// POST /api/registrations
func (h *RegistrationController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	req.Normalize()
	if errs := helper.Validate(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	reg, err := h.Service.Register(c.UserContext(), req)
	if err != nil {
		return registrationError(c, err, req.OrderID, storageError)
	}
	return helper.JsonCreated(c, "Registration saved", dto.FromModel(*reg, h.Service.Catalog.Names(req.Events)))
}

// POST /api/checkout
// Registers, then opens the provider order in one call.
func (h *RegistrationController) Checkout(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	req.Normalize()
	if errs := helper.Validate(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	res, err := h.Service.Checkout(c.UserContext(), req)
	if err != nil {
		return registrationError(c, err, req.OrderID, payController.WriteGatewayError)
	}
	return c.JSON(dto.CheckoutResponse{
		Success:          true,
		OrderID:          res.Order.OrderID,
		PaymentSessionID: res.Order.PaymentSessionID,
		OrderStatus:      res.Order.OrderStatus,
		Saved:            res.Saved,
		Registration:     dto.FromModel(res.Registration, res.EventNames),
	})
}

// POST /api/admin/spot-registrations
// Walk-in registration: no gateway call, status fixed to spot.
func (h *RegistrationController) RegisterSpot(c *fiber.Ctx) error {
	var req dto.SpotRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	req.Normalize()
	if errs := helper.Validate(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	reg, err := h.Service.RegisterSpot(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSelection) {
			return helper.JsonValidationError(c, []helper.FieldError{{Field: "event", Message: selectionMessage(err)}})
		}
		return registrationError(c, err, "", storageError)
	}
	return helper.JsonCreated(c, "Spot registration saved", fiber.Map{
		"registration": dto.FromModel(*reg, h.Service.Catalog.Names(reg.RegistrationSelectedEvents)),
		"ticket":       ticket.Build(reg, "", h.AdminBaseURL),
	})
}

// GET /api/tickets/:orderId
func (h *RegistrationController) GetTicket(c *fiber.Ctx) error {
	orderID := strings.TrimSpace(c.Params("orderId"))
	reg, err := h.Service.Store.GetByOrderID(c.UserContext(), orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"found":   false,
			"message": "No registration found for this order",
		})
	}
	if err != nil {
		logging.From(c).Error().Err(err).Str("order_id", orderID).Msg("load ticket")
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}

	names := h.Service.Catalog.Names(reg.RegistrationSelectedEvents)
	return c.JSON(fiber.Map{
		"success": true,
		"found":   true,
		"ticket":  ticket.Build(reg, names, h.AdminBaseURL),
	})
}

// GET /api/tickets/:orderId/qr?format=png|webp&size=256
func (h *RegistrationController) GetTicketQR(c *fiber.Ctx) error {
	orderID := strings.TrimSpace(c.Params("orderId"))
	format, err := ticket.ParseFormat(c.Query("format"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.Service.Store.GetByOrderID(c.UserContext(), orderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "No registration found for this order")
		}
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}

	img, err := ticket.QR(ticket.ConfirmURL(h.AdminBaseURL, orderID), format, c.QueryInt("size", ticket.DefaultSize))
	if err != nil {
		logging.From(c).Error().Err(err).Str("order_id", orderID).Msg("render ticket qr")
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to render QR code")
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(img)
}

// registrationError maps selection and duplicate errors; anything else goes to fallback.
func registrationError(c *fiber.Ctx, err error, orderID string, fallback func(*fiber.Ctx, error, string) error) error {
	switch {
	case errors.Is(err, service.ErrInvalidSelection):
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "events", Message: selectionMessage(err)}})
	case errors.Is(err, service.ErrTeamTooLarge):
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "teammates", Message: selectionMessage(err)}})
	case errors.Is(err, repository.ErrDuplicateOrder):
		return helper.JsonError(c, fiber.StatusConflict, "Order id already registered")
	}
	return fallback(c, err, orderID)
}

func storageError(c *fiber.Ctx, err error, orderID string) error {
	logging.From(c).Error().Err(err).Str("order_id", orderID).Msg("registration save failed")
	status, msg := helper.MapPGError(err)
	return helper.JsonError(c, status, msg)
}

// selectionMessage drops the sentinel prefix, leaving the catalog's reason.
func selectionMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
