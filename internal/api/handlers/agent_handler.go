package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/employeevirtual/backend/internal/agents"
	"github.com/employeevirtual/backend/internal/middleware/auth"
)

type AgentHandler struct {
	service *agents.Service
}

func NewAgentHandler(service *agents.Service) *AgentHandler {
	return &AgentHandler{service: service}
}

func (h *AgentHandler) Create(c *fiber.Ctx) error {
	var input agents.CreateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	agent, err := h.service.Create(c.Context(), auth.UserID(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(agent)
}

func (h *AgentHandler) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.Context(), auth.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"agents": list})
}

func (h *AgentHandler) Get(c *fiber.Ctx) error {
	agent, err := h.service.Get(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agent)
}

func (h *AgentHandler) Update(c *fiber.Ctx) error {
	var input agents.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	agent, err := h.service.Update(c.Context(), auth.UserID(c), c.Params("id"), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agent)
}

func (h *AgentHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Agent deleted"})
}
