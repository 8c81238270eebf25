package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"techfest_backend/internals/features/admin/dto"
	"techfest_backend/internals/features/admin/view"
	"techfest_backend/internals/features/events/catalog"
	regDTO "techfest_backend/internals/features/registrations/dto"
	"techfest_backend/internals/features/registrations/model"
	"techfest_backend/internals/features/registrations/repository"
	"techfest_backend/internals/features/registrations/ticket"
	helper "techfest_backend/internals/helpers"
	"techfest_backend/internals/logging"
	"techfest_backend/internals/middlewares/auth"
)

type Credentials struct {
	Email        string
	PasswordHash string
	Secret       string
	TTL          time.Duration
}

type AdminController struct {
	Store        repository.Store
	Catalog      *catalog.Catalog
	Creds        Credentials
	Blacklist    *auth.Blacklist
	AdminBaseURL string
	Now          func() time.Time
}

func NewAdminController(store repository.Store, cat *catalog.Catalog, creds Credentials, adminBaseURL string) *AdminController {
	if creds.TTL <= 0 {
		creds.TTL = 12 * time.Hour
	}
	return &AdminController{Store: store, Catalog: cat, Creds: creds, AdminBaseURL: adminBaseURL, Now: time.Now}
}

/* =========================================================
   AUTH
========================================================= */

// POST /api/admin/login
func (h *AdminController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	req.Normalize()
	if errs := helper.Validate(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	if h.Creds.Secret == "" || h.Creds.PasswordHash == "" {
		logging.From(c).Error().Msg("admin login attempted but admin credentials are not configured")
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Admin login is not configured")
	}
	if err := auth.CheckCredentials(h.Creds.Email, h.Creds.PasswordHash, req.Email, req.Password); err != nil {
		logging.From(c).Warn().Str("email", req.Email).Msg("admin login rejected")
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	token, exp, err := auth.IssueToken(h.Creds.Secret, req.Email, auth.RoleAdmin, h.Creds.TTL, h.Now())
	if err != nil {
		logging.From(c).Error().Err(err).Msg("sign admin token")
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to issue token")
	}
	return helper.JsonOK(c, "Logged in", dto.LoginResponse{Token: token, TokenType: "Bearer", ExpiresAt: exp})
}

// POST /api/admin/logout
func (h *AdminController) Logout(c *fiber.Ctx) error {
	if h.Blacklist == nil {
		return helper.JsonOK(c, "Logged out", nil)
	}
	raw := auth.ExtractToken(c, true)
	exp := h.Now().Add(h.Creds.TTL)
	if cl, ok := c.Locals(auth.LocClaims).(*auth.Claims); ok && cl.ExpiresAt != nil {
		exp = cl.ExpiresAt.Time
	}
	if err := h.Blacklist.Revoke(c.UserContext(), raw, exp); err != nil {
		logging.From(c).Error().Err(err).Msg("revoke admin token")
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to revoke token")
	}
	return helper.JsonOK(c, "Logged out", nil)
}

/* =========================================================
   REGISTRATIONS
========================================================= */

// GET /api/admin/registrations?status=&event=&q=&page=&per_page=
func (h *AdminController) ListRegistrations(c *fiber.Ctx) error {
	rows, err := h.Store.ListAll(c.UserContext())
	if err != nil {
		logging.From(c).Error().Err(err).Msg("list registrations")
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}

	f := view.Filter{Status: c.Query("status"), Event: c.Query("event"), Search: c.Query("q")}
	if f.Status != "" && f.Status != view.StatusAll && !validStatus(f.Status) {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "status", Message: "Unknown payment status"}})
	}
	paging := helper.ResolvePaging(c, helper.DefaultPerPage)

	filtered := view.Apply(rows, f)
	page := view.Paginate(filtered, paging.Page, paging.PerPage)

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "ok",
		"data":       dto.ToRows(page.Items, h.Catalog.Names),
		"pagination": page.Pagination(),
		"counts":     dto.CountStatuses(filtered),
	})
}

// PATCH /api/admin/registrations/:id/participation
func (h *AdminController) SetParticipation(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "id", Message: "Must be a valid UUID"}})
	}
	var req dto.ParticipationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonValidationError(c, []helper.FieldError{{Field: "body", Message: "Request body must be valid JSON"}})
	}
	if errs := helper.Validate(&req); len(errs) > 0 {
		return helper.JsonValidationError(c, errs)
	}

	if err := h.Store.SetParticipation(c.UserContext(), id, *req.Confirmed); err != nil {
		return h.writeStoreError(c, err, id.String())
	}
	logging.From(c).Info().Str("registration_id", id.String()).Bool("confirmed", *req.Confirmed).Msg("participation updated")
	return helper.JsonUpdated(c, "Participation updated", fiber.Map{"id": id, "participationConfirmed": *req.Confirmed})
}

// POST /api/admin/confirm/:orderId
// Target of the ticket QR code. Only paid and spot tickets can be confirmed.
func (h *AdminController) Confirm(c *fiber.Ctx) error {
	orderID := strings.TrimSpace(c.Params("orderId"))
	reg, err := h.Store.GetByOrderID(c.UserContext(), orderID)
	if err != nil {
		return h.writeStoreError(c, err, orderID)
	}
	names := h.Catalog.Names(reg.RegistrationSelectedEvents)
	if !ticket.Build(reg, names, h.AdminBaseURL).Valid() {
		return helper.JsonError(c, fiber.StatusConflict, "Ticket is not paid (status "+string(reg.RegistrationPaymentStatus)+")")
	}

	if !reg.RegistrationParticipationConfirmed {
		reg, err = h.Store.SetParticipationByOrderID(c.UserContext(), orderID, true)
		if err != nil {
			return h.writeStoreError(c, err, orderID)
		}
	}
	return helper.JsonUpdated(c, "Participation confirmed", fiber.Map{
		"registration": regDTO.FromModel(*reg, names),
		"ticket":       ticket.Build(reg, names, h.AdminBaseURL),
	})
}

func (h *AdminController) writeStoreError(c *fiber.Ctx, err error, ref string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Registration not found")
	}
	logging.From(c).Error().Err(err).Str("ref", ref).Msg("admin registration update")
	status, msg := helper.MapPGError(err)
	return helper.JsonError(c, status, msg)
}

func validStatus(s string) bool {
	switch model.PaymentStatus(strings.ToLower(s)) {
	case model.PaymentPending, model.PaymentPaid, model.PaymentFailed, model.PaymentRefunded, model.PaymentSpot:
		return true
	}
	return false
}
