package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	f, err := fh.Open()
	if err != nil {
		return HandleError(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return HandleError(c, err)
	}

	asset, err := h.s.Upload(c.Context(), GetUserID(c), fh.Filename, data)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context(), GetUserID(c), c.QueryInt("limit", defaultListLimit))
	if err != nil {
		return HandleError(c, err)
	}
	if assets == nil {
		assets = []*models.MediaAsset{}
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}

func (h *MediaHandler) Remove(c *fiber.Ctx) error {
	assetID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "id")
	}

	if err := h.s.Remove(c.Context(), GetUserID(c), assetID); err != nil {
		return HandleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *MediaHandler) Presign(c *fiber.Ctx) error {
	var req transfer.PresignRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.s.Presign(c.Context(), GetUserID(c), &req)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
