package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/employeevirtual/backend/internal/metadata"
	"github.com/employeevirtual/backend/internal/metrics"
	"github.com/employeevirtual/backend/internal/middleware/auth"
)

type MetadataHandler struct {
	service *metadata.Service
}

func NewMetadataHandler(service *metadata.Service) *MetadataHandler {
	return &MetadataHandler{service: service}
}

func (h *MetadataHandler) Extract(c *fiber.Ctx) error {
	var input metadata.ExtractInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	extraction, err := h.service.Extract(c.Context(), auth.UserID(c), input)
	if err != nil {
		return writeError(c, err)
	}

	metrics.ExtractionsTotal.WithLabelValues(string(extraction.Status)).Inc()
	return c.Status(fiber.StatusCreated).JSON(extraction)
}

func (h *MetadataHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	extractions, err := h.service.List(c.Context(), auth.UserID(c), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"extractions": extractions})
}

func (h *MetadataHandler) Get(c *fiber.Ctx) error {
	extraction, err := h.service.Get(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(extraction)
}

func (h *MetadataHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Extraction deleted"})
}
