package domain

import "time"

// SubscriptionMode distinguishes kind-scoped rows from the per-user preference row.
type SubscriptionMode string

const (
	SubscriptionModeKind        SubscriptionMode = "kind"
	SubscriptionModePreferences SubscriptionMode = "preferences"
)

// SubscriptionKind enumerates predefined feed scopes.
type SubscriptionKind string

const (
	SubscriptionKindAllJobs          SubscriptionKind = "all_jobs"
	SubscriptionKindProjectLeadJobs  SubscriptionKind = "project_lead_jobs"
	SubscriptionKindCrewJobs         SubscriptionKind = "crew_jobs"
	SubscriptionKindTransportVehicle SubscriptionKind = "transport_vehicle"
	SubscriptionKindTransportAll     SubscriptionKind = "transport_all"
)

// Valid reports whether k is one of the known kinds.
func (k SubscriptionKind) Valid() bool {
	switch k {
	case SubscriptionKindAllJobs, SubscriptionKindProjectLeadJobs, SubscriptionKindCrewJobs,
		SubscriptionKindTransportVehicle, SubscriptionKindTransportAll:
		return true
	}
	return false
}

// Category groups calendar entries for preference based feeds.
type Category string

const (
	CategoryProgram   Category = "program"
	CategoryEquipment Category = "equipment"
	CategoryCrew      Category = "crew"
	CategoryTransport Category = "transport"
)

// DefaultCategories is applied when a preference row is saved with no categories.
var DefaultCategories = []Category{CategoryProgram}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryProgram, CategoryEquipment, CategoryCrew, CategoryTransport:
		return true
	}
	return false
}

// FeedPreferences is the structured selection of the preference row.
type FeedPreferences struct {
	Categories             []Category
	OnlyMyAssignments      bool
	IncludeProjectLeadJobs bool
	// VehicleIDs narrows transport entries; empty means every vehicle.
	VehicleIDs []string
}

// CalendarSubscription is one feed a user has configured.
type CalendarSubscription struct {
	ID          string
	CompanyID   string
	UserID      string
	Token       string
	Mode        SubscriptionMode
	Kind        SubscriptionKind
	VehicleID   *string
	Preferences *FeedPreferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy reports whether the subscription belongs to the given user in the company.
func (s *CalendarSubscription) OwnedBy(companyID, userID string) bool {
	return s != nil && s.CompanyID == companyID && s.UserID == userID
}
