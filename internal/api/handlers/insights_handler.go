package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/publora/publora/internal/service"
)

type InsightsHandler struct {
	s service.InsightsService
}

func NewInsightsHandler(service service.InsightsService) *InsightsHandler {
	return &InsightsHandler{s: service}
}

func (h *InsightsHandler) GetOverview(c *fiber.Ctx) error {
	userID := GetUserID(c)

	overview, err := h.s.Overview(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoConnectedPlatforms) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No connected platforms",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to fetch insights",
		})
	}

	return c.Status(fiber.StatusOK).JSON(overview)
}
