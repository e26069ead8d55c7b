package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/employeevirtual/backend/internal/middleware/auth"
	"github.com/employeevirtual/backend/internal/users"
)

type UserHandler struct {
	service *users.Service
}

func NewUserHandler(service *users.Service) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input users.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.service.Register(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.service.Get(c.Context(), auth.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	user, err := h.service.GetVisible(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var input users.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.service.Update(c.Context(), auth.UserID(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), auth.UserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
