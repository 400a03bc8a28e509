package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.ParseInt(c.Locals("user_id").(string), 10, 64)
	return userID
}

// HandleError writes the JSON error response for err.
func HandleError(c *fiber.Ctx, err error) error {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  vErr.Message,
			"detail": vErr.Message,
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  err.Error(),
			"detail": err.Error(),
		})
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidID(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid " + name,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}
