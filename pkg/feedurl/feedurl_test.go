package feedurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFeedURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://app.example.com/api/calendar/feed?token=abc123",
		BuildFeedURL("abc123", "https://app.example.com/"))
	assert.Equal(t, "https://grid.app/api/calendar/feed?token=abc123",
		BuildFeedURL("abc123", "https://grid.app"))
	assert.Equal(t, "/api/calendar/feed?token=a%2Bb%26c",
		BuildFeedURL("a+b&c", ""))
}

func TestBuildWebcalURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "webcal://app.example.com/api/calendar/feed?token=abc123",
		BuildWebcalURL("abc123", "http://app.example.com"))
	assert.Equal(t, "webcal://app.example.com/api/calendar/feed?token=abc123",
		BuildWebcalURL("abc123", "https://app.example.com/"))
	assert.Equal(t, "webcal://app.example.com/api/calendar/feed?token=abc123",
		BuildWebcalURL("abc123", "HTTP://app.example.com"))
	assert.Equal(t, "webcal://app.example.com/api/calendar/feed?token=abc123",
		BuildWebcalURL("abc123", "Https://app.example.com"))
	assert.Equal(t, "/api/calendar/feed?token=abc123", BuildWebcalURL("abc123", ""))
}

func TestResolveBaseURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://explicit", ResolveBaseURL("https://explicit", "https://cfg", "https://origin"))
	assert.Equal(t, "https://cfg", ResolveBaseURL("", "https://cfg", "https://origin"))
	assert.Equal(t, "https://origin", ResolveBaseURL("", " ", "https://origin"))
	assert.Equal(t, "", ResolveBaseURL("", "", ""))
}
