package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/employeevirtual/backend/internal/files"
	"github.com/employeevirtual/backend/internal/metrics"
	"github.com/employeevirtual/backend/internal/middleware/auth"
)

type FileHandler struct {
	service *files.Service
}

func NewFileHandler(service *files.Service) *FileHandler {
	return &FileHandler{service: service}
}

func (h *FileHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "A file part named 'file' is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Unable to read uploaded file")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return badRequest(c, "Unable to read uploaded file")
	}

	var tags []string
	if raw := c.FormValue("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	input := files.UploadInput{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
		Tags:        tags,
	}

	file, err := h.service.Upload(c.Context(), auth.UserID(c), input)
	if err != nil {
		return writeError(c, err)
	}

	metrics.FilesUploaded.Inc()
	return c.Status(fiber.StatusCreated).JSON(file)
}

func (h *FileHandler) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.Context(), auth.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"files": list})
}

func (h *FileHandler) Get(c *fiber.Ctx) error {
	file, err := h.service.Get(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(file)
}

func (h *FileHandler) Update(c *fiber.Ctx) error {
	var input files.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	file, err := h.service.Update(c.Context(), auth.UserID(c), c.Params("id"), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(file)
}

func (h *FileHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "File deleted"})
}

func (h *FileHandler) ListProcessing(c *fiber.Ctx) error {
	records, err := h.service.ListProcessing(c.Context(), auth.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"processing": records})
}
