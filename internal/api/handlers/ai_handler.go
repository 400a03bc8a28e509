package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

type AIHandler struct {
	s service.AIService
}

func NewAIHandler(service service.AIService) *AIHandler {
	return &AIHandler{s: service}
}

func (h *AIHandler) GenerateText(c *fiber.Ctx) error {
	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	text, err := h.s.GenerateText(c.Context(), req.Prompt)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.GenerateTextResponse{GeneratedText: text})
}

func (h *AIHandler) GenerateImage(c *fiber.Ctx) error {
	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	asset, err := h.s.GenerateImage(c.Context(), GetUserID(c), req.Prompt)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(asset)
}
