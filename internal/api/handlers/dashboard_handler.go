package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/employeevirtual/backend/internal/dashboard"
	"github.com/employeevirtual/backend/internal/middleware/auth"
)

type DashboardHandler struct {
	service *dashboard.Service
}

func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context(), auth.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}
