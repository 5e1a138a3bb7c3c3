// Package feedurl builds the subscription URLs handed to calendar clients.
package feedurl

import (
	"net/url"
	"strings"
)

// FeedPath is the public route that serves iCalendar feeds.
const FeedPath = "/api/calendar/feed"

// BuildFeedURL joins baseURL, the feed path and the escaped token. It never fails.
func BuildFeedURL(token, baseURL string) string {
	return strings.TrimRight(baseURL, "/") + FeedPath + "?token=" + url.QueryEscape(token)
}

// BuildWebcalURL returns the feed URL with its scheme swapped to webcal://.
// An http scheme, in any letter case, is upgraded to https first.
func BuildWebcalURL(token, baseURL string) string {
	if rest, ok := cutScheme(baseURL, "http://"); ok {
		baseURL = "https://" + rest
	}
	feed := BuildFeedURL(token, baseURL)
	if rest, ok := cutScheme(feed, "https://"); ok {
		return "webcal://" + rest
	}
	return feed
}

func cutScheme(s, scheme string) (string, bool) {
	if len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme) {
		return s[len(scheme):], true
	}
	return s, false
}

// ResolveBaseURL picks the first non-empty of explicit, configured and origin.
func ResolveBaseURL(explicit, configured, origin string) string {
	for _, candidate := range []string{explicit, configured, origin} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
