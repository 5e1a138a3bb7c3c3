package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/calendar-feeds/internal/api/http/handlers"
	"github.com/spec-kit/calendar-feeds/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Calendar       *handlers.CalendarHandler
	Feed           *handlers.FeedHandler
	FeedLimiter    *RateLimiter
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Snapshot)
	}

	api := app.Group("/api/calendar")

	feedHandlers := []fiber.Handler{cfg.Feed.Feed}
	if cfg.FeedLimiter != nil {
		feedHandlers = append([]fiber.Handler{cfg.FeedLimiter.Handle}, feedHandlers...)
	}
	api.Get("/feed", feedHandlers...)

	// authentication is attached per route so the public feed stays outside it
	protected := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequirePrincipal(), h}
	}
	api.Get("/subscriptions", protected(cfg.Calendar.ListSubscriptions)...)
	api.Post("/subscriptions", protected(cfg.Calendar.CreateSubscription)...)
	api.Delete("/subscriptions/:id", protected(cfg.Calendar.DeleteSubscription)...)
	api.Get("/preferences", protected(cfg.Calendar.GetPreferences)...)
	api.Put("/preferences", protected(cfg.Calendar.UpsertPreferences)...)
}
