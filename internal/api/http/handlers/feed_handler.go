package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/calendar-feeds/internal/service"
)

// FeedHandler serves token-addressed iCalendar feeds to calendar clients.
type FeedHandler struct {
	service *service.CalendarFeedService
}

// NewFeedHandler constructs handler.
func NewFeedHandler(feedService *service.CalendarFeedService) *FeedHandler {
	return &FeedHandler{service: feedService}
}

// Feed GET /api/calendar/feed?token=.
func (h *FeedHandler) Feed(c *fiber.Ctx) error {
	body, err := h.service.Render(c.UserContext(), c.Query("token"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="calendar.ics"`)
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(body)
}
