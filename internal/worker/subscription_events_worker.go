package worker

import (
	"github.com/spec-kit/calendar-feeds/internal/service"
)

// StartSubscriptionEventsWorker registers subscription event handlers.
func StartSubscriptionEventsWorker(eventsService *service.SubscriptionEventsService) {
	if eventsService == nil {
		return
	}
	eventsService.RegisterHandlers()
}
