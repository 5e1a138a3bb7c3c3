package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/calendar-feeds/internal/api/dto"
	"github.com/spec-kit/calendar-feeds/internal/auth"
	"github.com/spec-kit/calendar-feeds/internal/domain"
	"github.com/spec-kit/calendar-feeds/internal/service"
	"github.com/spec-kit/calendar-feeds/pkg/feedurl"
	apperrors "github.com/spec-kit/calendar-feeds/pkg/util/errorutil"
)

// CalendarHandler manages the authenticated subscription endpoints.
type CalendarHandler struct {
	service   *service.CalendarSubscriptionService
	publicURL string
}

// NewCalendarHandler constructs handler. publicURL may be empty, in which
// case feed links are built from the request origin.
func NewCalendarHandler(subscriptionService *service.CalendarSubscriptionService, publicURL string) *CalendarHandler {
	return &CalendarHandler{service: subscriptionService, publicURL: publicURL}
}

// ListSubscriptions GET /api/calendar/subscriptions.
func (h *CalendarHandler) ListSubscriptions(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	views, err := h.service.List(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.SubscriptionResponse, 0, len(views))
	for i := range views {
		item := subscriptionResponse(&views[i].CalendarSubscription)
		item.VehicleLabel = views[i].VehicleLabel
		items = append(items, item)
	}
	return c.JSON(dto.SubscriptionListResponse{Data: items, Limit: h.service.Limit()})
}

// CreateSubscription POST /api/calendar/subscriptions.
func (h *CalendarHandler) CreateSubscription(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Kind == "" {
		return apperrors.NewValidationError("kind required", map[string]any{"field": "kind"})
	}

	sub, err := h.service.Create(c.UserContext(), principal, service.CreateSubscriptionInput{
		Kind:      req.Kind,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.withLinks(c, sub)})
}

// DeleteSubscription DELETE /api/calendar/subscriptions/:id.
func (h *CalendarHandler) DeleteSubscription(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	// a malformed id cannot name a stored row, so it deletes nothing
	if id, parseErr := uuid.Parse(c.Params("id")); parseErr == nil {
		if err := h.service.Delete(c.UserContext(), principal, id.String()); err != nil {
			return err
		}
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetPreferences GET /api/calendar/preferences.
func (h *CalendarHandler) GetPreferences(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	sub, err := h.service.GetPreferences(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subscriptionResponse(sub)})
}

// UpsertPreferences PUT /api/calendar/preferences.
func (h *CalendarHandler) UpsertPreferences(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sub, err := h.service.UpsertPreferences(c.UserContext(), principal, service.PreferencesInput{
		Categories:             req.Categories,
		OnlyMyAssignments:      req.OnlyMyAssignments,
		IncludeProjectLeadJobs: req.IncludeProjectLeadJobs,
		VehicleIDs:             req.VehicleIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.withLinks(c, sub)})
}

func (h *CalendarHandler) withLinks(c *fiber.Ctx, sub *domain.CalendarSubscription) dto.SubscriptionResponse {
	resp := subscriptionResponse(sub)
	base := feedurl.ResolveBaseURL("", h.publicURL, c.BaseURL())
	resp.Token = sub.Token
	resp.FeedURL = feedurl.BuildFeedURL(sub.Token, base)
	resp.WebcalURL = feedurl.BuildWebcalURL(sub.Token, base)
	return resp
}

func requirePrincipal(c *fiber.Ctx) (domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthorized("user required")
	}
	return *principal, nil
}

func subscriptionResponse(sub *domain.CalendarSubscription) dto.SubscriptionResponse {
	resp := dto.SubscriptionResponse{
		ID:        sub.ID,
		Mode:      sub.Mode,
		Kind:      sub.Kind,
		VehicleID: sub.VehicleID,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
	if sub.Preferences != nil {
		vehicleIDs := sub.Preferences.VehicleIDs
		if vehicleIDs == nil {
			vehicleIDs = []string{}
		}
		resp.Preferences = &dto.PreferencesResponse{
			Categories:             sub.Preferences.Categories,
			OnlyMyAssignments:      sub.Preferences.OnlyMyAssignments,
			IncludeProjectLeadJobs: sub.Preferences.IncludeProjectLeadJobs,
			VehicleIDs:             vehicleIDs,
		}
	}
	return resp
}
