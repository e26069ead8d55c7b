package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/employeevirtual/backend/internal/chat"
	"github.com/employeevirtual/backend/internal/metrics"
	"github.com/employeevirtual/backend/internal/middleware/auth"
)

type ChatHandler struct {
	service *chat.Service
}

func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) CreateSession(c *fiber.Ctx) error {
	var input chat.CreateSessionInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := h.service.CreateSession(c.Context(), auth.UserID(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListSessions(c.Context(), auth.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(session)
}

func (h *ChatHandler) UpdateSession(c *fiber.Ctx) error {
	var input chat.UpdateSessionInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := h.service.UpdateSession(c.Context(), auth.UserID(c), c.Params("id"), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(session)
}

func (h *ChatHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.service.DeleteSession(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session deleted"})
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.service.ListMessages(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var input struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	exchange, err := h.service.SendMessage(c.Context(), auth.UserID(c), c.Params("id"), input.Content)
	if err != nil {
		return writeError(c, err)
	}

	metrics.ChatMessagesTotal.WithLabelValues("user").Inc()
	metrics.ChatMessagesTotal.WithLabelValues("assistant").Inc()
	metrics.LLMTokensUsed.Add(float64(exchange.AssistantMessage.TokensUsed))

	return c.Status(fiber.StatusCreated).JSON(exchange)
}
