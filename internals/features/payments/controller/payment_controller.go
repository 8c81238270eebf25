package controller

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/features/payments/dto"
	"techfest_backend/internals/features/payments/gateway"
	payRepo "techfest_backend/internals/features/payments/repository"
	svc "techfest_backend/internals/features/payments/service"
	"techfest_backend/internals/features/registrations/ticket"
	helper "techfest_backend/internals/helpers"
	"techfest_backend/internals/logging"
)

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	Service      *svc.Service
	Catalog      *catalog.Catalog
	AdminBaseURL string

	// Webhook verifiers per endpoint; nil rejects every delivery.
	WebhookVerifier  gateway.WebhookVerifier
	MidtransVerifier gateway.WebhookVerifier
}

func NewPaymentController(s *svc.Service, cat *catalog.Catalog, adminBaseURL string) *PaymentController {
	return &PaymentController{Service: s, Catalog: cat, AdminBaseURL: adminBaseURL}
}

/* =======================================================================
   Orders
======================================================================= */

// POST /api/create-order
func (h *PaymentController) CreateOrder(c *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	if errs := dto.ValidateCreateOrder(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	order, err := h.Service.CreateOrder(c.UserContext(), req)
	if err != nil {
		return WriteGatewayError(c, err, req.OrderID)
	}
	return c.JSON(dto.CreateOrderResponse{
		Success:          true,
		OrderID:          order.OrderID,
		PaymentSessionID: order.PaymentSessionID,
		OrderStatus:      order.OrderStatus,
	})
}

// POST /api/payment-status
func (h *PaymentController) PaymentStatus(c *fiber.Ctx) error {
	var req dto.PaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	if errs := dto.ValidatePaymentStatus(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	payments, outcome, err := h.Service.Payments(c.UserContext(), req.OrderID)
	if err != nil {
		return WriteGatewayError(c, err, req.OrderID)
	}
	return c.JSON(dto.PaymentStatusResponse{
		Success:  true,
		Payments: rawPayments(payments),
		Overall:  string(outcome),
	})
}

// POST /api/payment-status/sync
// Same lookup as /payment-status, then writes the outcome back and returns the ticket.
func (h *PaymentController) SyncPaymentStatus(c *fiber.Ctx) error {
	var req dto.PaymentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	if errs := dto.ValidatePaymentStatus(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	res, err := h.Service.Sync(c.UserContext(), req.OrderID)
	if err != nil {
		return WriteGatewayError(c, err, req.OrderID)
	}

	out := fiber.Map{
		"success":  true,
		"payments": rawPayments(res.Payments),
		"overall":  string(res.Outcome),
		"written":  res.Written,
		"found":    res.Registration != nil,
		"ticket":   nil,
	}
	if res.Registration != nil {
		names := ""
		if h.Catalog != nil {
			names = h.Catalog.Names(res.Registration.RegistrationSelectedEvents)
		}
		out["ticket"] = ticket.Build(res.Registration, names, h.AdminBaseURL)
	}
	return c.JSON(out)
}

/* =======================================================================
   Webhooks
======================================================================= */

// POST /api/payment-webhook
// Always 200 {status:"success"}; the processing outcome lives in payment_gateway_events.
func (h *PaymentController) Webhook(c *fiber.Ctx) error {
	return h.acknowledge(c, svc.Delivery{
		Provider: providerName(h.WebhookVerifier, "cashfree"),
		Verifier: h.WebhookVerifier,
		Decode:   svc.DecodePayload,
	})
}

// POST /api/payment-webhook/midtrans
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	return h.acknowledge(c, svc.Delivery{
		Provider: "midtrans",
		Verifier: h.MidtransVerifier,
		Decode:   svc.DecodeMidtrans,
	})
}

func (h *PaymentController) acknowledge(c *fiber.Ctx, d svc.Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.From(c).Error().Interface("panic", r).Msg("webhook panicked")
			err = c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
		}
	}()

	d.Headers = requestHeaders(c)
	d.Body = append([]byte(nil), c.Body()...)
	res := h.Service.HandleWebhook(c.UserContext(), d)

	logging.From(c).Info().
		Str("provider", d.Provider).
		Str("event_id", res.EventID.String()).
		Str("status", string(res.Status)).
		Str("action", res.Action).
		Msg("webhook acknowledged")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
}

/* =======================================================================
   Gateway event log (admin)
======================================================================= */

// GET /api/admin/gateway-events?provider=&status=&order_id=&page=&per_page=
func (h *PaymentController) ListGatewayEvents(c *fiber.Ctx) error {
	if h.Service.Events == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Gateway event log unavailable")
	}
	p := helper.ResolvePaging(c, helper.DefaultPerPage)
	rows, total, err := h.Service.Events.List(c.UserContext(), payRepo.EventFilter{
		Provider: c.Query("provider"),
		Status:   c.Query("status"),
		OrderID:  c.Query("order_id"),
	}, p.Offset, p.Limit)
	if err != nil {
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p.Page, p.PerPage, len(rows)))
}

// GET /api/admin/gateway-events/:id
func (h *PaymentController) GetGatewayEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	if h.Service.Events == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Gateway event log unavailable")
	}
	ev, err := h.Service.Events.Get(c.UserContext(), id)
	if errors.Is(err, payRepo.ErrEventNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Gateway event not found")
	}
	if err != nil {
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonOK(c, "ok", ev)
}

/* =======================================================================
   Helpers
======================================================================= */

// WriteGatewayError: configuration and provider failures are 500 with {error, details}.
// Amounts the provider cannot charge are field errors on orderAmount.
func WriteGatewayError(c *fiber.Ctx, err error, orderID string) error {
	log := logging.From(c).With().Str("order_id", orderID).Logger()

	var pe *gateway.ProviderError
	switch {
	case errors.Is(err, gateway.ErrUnsupportedCurrency), errors.Is(err, gateway.ErrFractionalAmount):
		log.Warn().Err(err).Msg("order amount rejected by payment gateway")
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "orderAmount", Message: err.Error()}})
	case errors.Is(err, gateway.ErrNotConfigured):
		log.Error().Err(err).Msg("payment gateway credentials missing")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Payment gateway not configured",
			"details": "Provider credentials are missing on the server",
		})
	case errors.As(err, &pe):
		log.Error().Err(err).Int("provider_status", pe.StatusCode).Msg("payment provider error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": pe.Message,
			"details": fiber.Map{
				"provider":   pe.Provider,
				"statusCode": pe.StatusCode,
				"code":       pe.Code,
			},
		})
	default:
		log.Error().Err(err).Msg("payment request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": "Unable to reach the payment provider",
		})
	}
}

// rawPayments passes provider JSON through untouched where it was kept.
func rawPayments(payments []gateway.Payment) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(payments))
	for _, p := range payments {
		if len(p.Raw) > 0 {
			out = append(out, p.Raw)
			continue
		}
		b, err := json.Marshal(p)
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func requestHeaders(c *fiber.Ctx) map[string]string {
	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		headers[k] = strings.Join(v, ",")
	}
	return headers
}

func providerName(v gateway.WebhookVerifier, def string) string {
	if p, ok := v.(interface{ Name() string }); ok {
		return p.Name()
	}
	return def
}
