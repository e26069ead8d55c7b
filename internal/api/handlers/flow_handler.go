package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/employeevirtual/backend/internal/flows"
	"github.com/employeevirtual/backend/internal/metrics"
	"github.com/employeevirtual/backend/internal/middleware/auth"
)

type FlowHandler struct {
	service *flows.Service
}

func NewFlowHandler(service *flows.Service) *FlowHandler {
	return &FlowHandler{service: service}
}

func (h *FlowHandler) Create(c *fiber.Ctx) error {
	var input flows.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	flow, err := h.service.Create(c.Context(), auth.UserID(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(flow)
}

func (h *FlowHandler) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.Context(), auth.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"flows": list})
}

func (h *FlowHandler) Get(c *fiber.Ctx) error {
	flow, err := h.service.Get(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(flow)
}

func (h *FlowHandler) Update(c *fiber.Ctx) error {
	var input flows.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	flow, err := h.service.Update(c.Context(), auth.UserID(c), c.Params("id"), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(flow)
}

func (h *FlowHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Flow deleted"})
}

func (h *FlowHandler) AddTag(c *fiber.Ctx) error {
	var input struct {
		Tag string `json:"tag"`
	}
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	flow, err := h.service.AddTag(c.Context(), auth.UserID(c), c.Params("id"), input.Tag)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(flow)
}

func (h *FlowHandler) RemoveTag(c *fiber.Ctx) error {
	// Path params arrive percent-encoded, so a tag like "high priority"
	// reads as "high%20priority" without a decode.
	tag, err := url.PathUnescape(c.Params("tag"))
	if err != nil {
		return badRequest(c, "Invalid tag encoding")
	}

	flow, err := h.service.RemoveTag(c.Context(), auth.UserID(c), c.Params("id"), tag)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(flow)
}

func (h *FlowHandler) Execute(c *fiber.Ctx) error {
	var input struct {
		TriggerData map[string]any `json:"trigger_data"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	execution, err := h.service.Execute(c.Context(), auth.UserID(c), c.Params("id"), input.TriggerData)
	if err != nil {
		return writeError(c, err)
	}

	metrics.FlowExecutionsTotal.Inc()
	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *FlowHandler) ListExecutions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	executions, err := h.service.ListExecutions(c.Context(), auth.UserID(c), c.Params("id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"executions": executions})
}
