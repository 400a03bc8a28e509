package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/service"
)

type ApiKeyHandler struct {
	s service.ApiKeyService
}

func NewApiKeyHandler(service service.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{s: service}
}

func (h *ApiKeyHandler) CreateApiKey(c *fiber.Ctx) error {
	key, err := h.s.Create(c.Context(), GetUserID(c))
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(key)
}

func (h *ApiKeyHandler) ListKeys(c *fiber.Ctx) error {
	keys, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return HandleError(c, err)
	}
	if keys == nil {
		keys = []*models.ApiKey{}
	}

	return c.Status(fiber.StatusOK).JSON(keys)
}

func (h *ApiKeyHandler) RemoveAPIKey(c *fiber.Ctx) error {
	keyID := c.QueryInt("id", 0)

	if err := h.s.RemoveAPIKey(c.Context(), GetUserID(c), int64(keyID)); err != nil {
		return HandleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
