package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"techfest_backend/internals/features/events/catalog"
	"techfest_backend/internals/features/events/dto"
	"techfest_backend/internals/features/events/model"
	helper "techfest_backend/internals/helpers"
)

type EventController struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
}

func NewEventController(db *gorm.DB, cat *catalog.Catalog) *EventController {
	return &EventController{DB: db, Catalog: cat}
}

// GET /api/events
func (h *EventController) List(c *fiber.Ctx) error {
	var rows []model.EventModel
	if err := h.DB.WithContext(c.UserContext()).Order("name ASC").Find(&rows).Error; err != nil {
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(rows, h.Catalog))
}

// GET /api/events/:slug
func (h *EventController) GetBySlug(c *fiber.Ctx) error {
	slug := strings.ToLower(strings.TrimSpace(c.Params("slug")))
	if slug == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "slug is required")
	}

	var ev model.EventModel
	err := h.DB.WithContext(c.UserContext()).Where("slug = ?", slug).Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Event not found")
	}
	if err != nil {
		status, msg := helper.MapPGError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(ev, h.Catalog))
}
