package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

func TestRenderProducesCalendar(t *testing.T) {
	t.Parallel()

	timed := entry("e1", domain.CategoryCrew, 0)
	timed.Title = "Load-in"
	timed.Location = "Hall A"
	allDay := domain.CalendarEntry{
		ID:       "e2",
		Category: domain.CategoryProgram,
		Title:    "Festival",
		StartAt:  time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		AllDay:   true,
	}

	out := string(NewRenderer("grid", 30*time.Minute).Render("grid - My crew jobs", []domain.CalendarEntry{timed, allDay}, t0))

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "X-WR-CALNAME:grid - My crew jobs")
	assert.Contains(t, out, "REFRESH-INTERVAL")
	assert.Contains(t, out, "PT30M")
	assert.Contains(t, out, "UID:e1@grid")
	assert.Contains(t, out, "SUMMARY:Load-in")
	assert.Contains(t, out, "LOCATION:Hall A")
	assert.Contains(t, out, "CATEGORIES:CREW")
	assert.Contains(t, out, "DTSTART:20260501T080000Z")
	assert.Contains(t, out, "VALUE=DATE")

	parsed, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, parsed.Events(), 2)
}

func TestRenderEmptyFeed(t *testing.T) {
	t.Parallel()

	out := string(NewRenderer("grid", 0).Render("empty", nil, t0))
	assert.Contains(t, out, "END:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
	assert.Contains(t, out, "PT1H")
}

func TestFeedName(t *testing.T) {
	t.Parallel()

	vehicleSub := domain.CalendarSubscription{Mode: domain.SubscriptionModeKind, Kind: domain.SubscriptionKindTransportVehicle}
	assert.Equal(t, "grid - Transport: Van (AB1)", FeedName("grid", vehicleSub, "Van (AB1)"))
	assert.Equal(t, "grid - Vehicle transport", FeedName("grid", vehicleSub, ""))
	assert.Equal(t, "grid calendar", FeedName("grid", domain.CalendarSubscription{Mode: domain.SubscriptionModePreferences}, ""))
}
