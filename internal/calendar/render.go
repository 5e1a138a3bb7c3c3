package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// Renderer serializes entries as an iCalendar document.
type Renderer struct {
	ProductID string
	// Refresh is advertised to clients as the suggested polling interval.
	Refresh time.Duration
}

// NewRenderer builds a renderer for the given product identifier.
func NewRenderer(productID string, refresh time.Duration) *Renderer {
	if refresh <= 0 {
		refresh = time.Hour
	}
	return &Renderer{ProductID: productID, Refresh: refresh}
}

// Render produces a VCALENDAR named name containing one VEVENT per entry.
func (r *Renderer) Render(name string, entries []domain.CalendarEntry, now time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(fmt.Sprintf("-//%s//Calendar Feed//EN", r.ProductID))
	cal.SetName(name)
	cal.SetXWRCalName(name)
	cal.SetRefreshInterval(isoDuration(r.Refresh))
	cal.SetXPublishedTTL(isoDuration(r.Refresh))

	for _, entry := range entries {
		event := cal.AddEvent(entry.ID + "@" + r.ProductID)
		stamp := entry.UpdatedAt
		if stamp.IsZero() {
			stamp = now
		}
		event.SetDtStampTime(stamp.UTC())
		event.SetModifiedAt(stamp.UTC())
		if entry.AllDay {
			event.SetAllDayStartAt(entry.StartAt)
			end := entry.EndAt
			if !end.After(entry.StartAt) {
				end = entry.StartAt.AddDate(0, 0, 1)
			}
			event.SetAllDayEndAt(end)
		} else {
			event.SetStartAt(entry.StartAt.UTC())
			event.SetEndAt(entry.EndAt.UTC())
		}
		event.SetSummary(entry.Title)
		if entry.Description != "" {
			event.SetDescription(entry.Description)
		}
		if entry.Location != "" {
			event.SetLocation(entry.Location)
		}
		event.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(entry.Category)))
	}
	return []byte(cal.Serialize())
}

// FeedName is the calendar title shown by subscribing clients.
func FeedName(product string, sub domain.CalendarSubscription, vehicleLabel string) string {
	if sub.Mode == domain.SubscriptionModePreferences {
		return product + " calendar"
	}
	switch sub.Kind {
	case domain.SubscriptionKindAllJobs:
		return product + " - All jobs"
	case domain.SubscriptionKindProjectLeadJobs:
		return product + " - My project lead jobs"
	case domain.SubscriptionKindCrewJobs:
		return product + " - My crew jobs"
	case domain.SubscriptionKindTransportVehicle:
		if vehicleLabel == "" {
			return product + " - Vehicle transport"
		}
		return product + " - Transport: " + vehicleLabel
	case domain.SubscriptionKindTransportAll:
		return product + " - All transport"
	}
	return product
}

func isoDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes <= 0 {
		minutes = 60
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("PT%dH", minutes/60)
	}
	return fmt.Sprintf("PT%dM", minutes)
}
