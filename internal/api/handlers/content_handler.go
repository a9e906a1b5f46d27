package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/publora/publora/internal/service"
	"github.com/publora/publora/internal/transfer"
)

type ContentHandler struct {
	s service.ContentService
}

func NewContentHandler(service service.ContentService) *ContentHandler {
	return &ContentHandler{s: service}
}

func (h *ContentHandler) CreateContent(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var cc transfer.ContentCreation
	if err := c.BodyParser(&cc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	contentID, err := h.s.Create(c.Context(), userID, &cc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Content created successfully",
		"id":      contentID,
	})
}

func (h *ContentHandler) ListContents(c *fiber.Ctx) error {
	userID := GetUserID(c)

	contents, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list contents",
		})
	}

	return c.Status(fiber.StatusOK).JSON(contents)
}

func (h *ContentHandler) RemoveContent(c *fiber.Ctx) error {
	userID := GetUserID(c)
	contentId := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(contentId))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove content",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
