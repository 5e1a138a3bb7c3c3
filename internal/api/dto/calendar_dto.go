package dto

import (
	"time"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// CreateSubscriptionRequest payload.
type CreateSubscriptionRequest struct {
	Kind      domain.SubscriptionKind `json:"kind"`
	VehicleID *string                 `json:"vehicle_id"`
}

// PreferencesRequest payload for PUT /api/calendar/preferences.
type PreferencesRequest struct {
	Categories             []domain.Category `json:"categories"`
	OnlyMyAssignments      bool              `json:"only_my_assignments"`
	IncludeProjectLeadJobs bool              `json:"include_project_lead_jobs"`
	VehicleIDs             []string          `json:"vehicle_ids"`
}

// PreferencesResponse mirrors the stored preference selection.
type PreferencesResponse struct {
	Categories             []domain.Category `json:"categories"`
	OnlyMyAssignments      bool              `json:"only_my_assignments"`
	IncludeProjectLeadJobs bool              `json:"include_project_lead_jobs"`
	VehicleIDs             []string          `json:"vehicle_ids"`
}

// SubscriptionResponse describes one subscription. Token and URLs are only
// filled on the create and upsert responses.
type SubscriptionResponse struct {
	ID           string                  `json:"id"`
	Mode         domain.SubscriptionMode `json:"mode"`
	Kind         domain.SubscriptionKind `json:"kind,omitempty"`
	VehicleID    *string                 `json:"vehicle_id,omitempty"`
	VehicleLabel string                  `json:"vehicle_label,omitempty"`
	Preferences  *PreferencesResponse    `json:"preferences,omitempty"`
	Token        string                  `json:"token,omitempty"`
	FeedURL      string                  `json:"feed_url,omitempty"`
	WebcalURL    string                  `json:"webcal_url,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// SubscriptionListResponse wraps the caller's subscriptions with the quota.
type SubscriptionListResponse struct {
	Data  []SubscriptionResponse `json:"data"`
	Limit int                    `json:"limit"`
}
