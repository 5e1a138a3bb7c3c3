package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSubscriptionCreated EventType = "calendar_subscription_created"
	EventSubscriptionUpdated EventType = "calendar_subscription_updated"
	EventSubscriptionDeleted EventType = "calendar_subscription_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	SubscriptionID string    `json:"subscription_id"`
	CompanyID      string    `json:"company_id"`
	UserID         string    `json:"user_id"`
	Timestamp      time.Time `json:"timestamp"`
	Payload        any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subscriptionID, companyID, userID string, payload any) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		SubscriptionID: subscriptionID,
		CompanyID:      companyID,
		UserID:         userID,
		Timestamp:      time.Now().UTC(),
		Payload:        payload,
	}
}

// SubscriptionChangedPayload describes a created or updated subscription.
// TokenHash is set instead of the token so handlers never see the credential.
type SubscriptionChangedPayload struct {
	Mode      domain.SubscriptionMode `json:"mode"`
	Kind      domain.SubscriptionKind `json:"kind,omitempty"`
	VehicleID *string                 `json:"vehicle_id,omitempty"`
	TokenHash string                  `json:"token_hash"`
}

// SubscriptionDeletedPayload describes a removed subscription.
type SubscriptionDeletedPayload struct {
	TokenHash string `json:"token_hash"`
}
