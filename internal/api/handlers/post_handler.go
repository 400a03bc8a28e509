package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

const defaultListLimit = 50

type PostHandler struct {
	s  service.PostService
	an service.AnalyticsService
}

func NewPostHandler(service service.PostService, an service.AnalyticsService) *PostHandler {
	return &PostHandler{s: service, an: an}
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	var req transfer.SchedulePostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.s.Schedule(c.Context(), GetUserID(c), &req)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *PostHandler) PostNow(c *fiber.Ctx) error {
	var req transfer.SchedulePostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.s.Immediate(c.Context(), GetUserID(c), &req)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *PostHandler) ListScheduled(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), GetUserID(c), c.Query("status"), c.QueryInt("limit", defaultListLimit))
	if err != nil {
		return HandleError(c, err)
	}
	if posts == nil {
		posts = []*transfer.PostInfo{}
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PostListResponse{Posts: posts})
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return invalidID(c, "post_id")
	}

	if err := h.s.Cancel(c.Context(), GetUserID(c), postID); err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Post cancelled successfully",
	})
}

func (h *PostHandler) GetAnalytics(c *fiber.Ctx) error {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return invalidID(c, "post_id")
	}

	resp, err := h.an.Get(c.Context(), GetUserID(c), postID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *PostHandler) RefreshAnalytics(c *fiber.Ctx) error {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return invalidID(c, "post_id")
	}

	resp, err := h.an.Refresh(c.Context(), GetUserID(c), postID)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
