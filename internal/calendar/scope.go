// Package calendar turns a subscription's selection into filtered, rendered feed entries.
package calendar

import (
	"sort"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// Scope is the normalized selection both subscription modes resolve to.
type Scope struct {
	UserID             string
	Categories         []domain.Category
	OnlyMine           bool
	IncludeProjectLead bool
	// VehicleIDs limits transport entries; empty means every vehicle.
	VehicleIDs []string
}

// ScopeFor resolves the entries a subscription is entitled to see.
func ScopeFor(sub domain.CalendarSubscription) Scope {
	scope := Scope{UserID: sub.UserID}

	if sub.Mode == domain.SubscriptionModePreferences && sub.Preferences != nil {
		prefs := sub.Preferences
		scope.Categories = append(scope.Categories, prefs.Categories...)
		scope.OnlyMine = prefs.OnlyMyAssignments
		scope.IncludeProjectLead = prefs.IncludeProjectLeadJobs
		scope.VehicleIDs = append(scope.VehicleIDs, prefs.VehicleIDs...)
		return scope
	}

	switch sub.Kind {
	case domain.SubscriptionKindAllJobs:
		scope.Categories = []domain.Category{domain.CategoryProgram}
	case domain.SubscriptionKindProjectLeadJobs:
		scope.IncludeProjectLead = true
	case domain.SubscriptionKindCrewJobs:
		scope.Categories = []domain.Category{domain.CategoryCrew}
		scope.OnlyMine = true
	case domain.SubscriptionKindTransportVehicle:
		scope.Categories = []domain.Category{domain.CategoryTransport}
		if sub.VehicleID != nil {
			scope.VehicleIDs = []string{*sub.VehicleID}
		}
	case domain.SubscriptionKindTransportAll:
		scope.Categories = []domain.Category{domain.CategoryTransport}
	}
	return scope
}

// FetchCategories lists the categories a store query must cover for the scope.
func (s Scope) FetchCategories() []domain.Category {
	seen := make(map[domain.Category]struct{}, len(s.Categories)+1)
	var out []domain.Category
	add := func(c domain.Category) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	for _, c := range s.Categories {
		add(c)
	}
	if s.IncludeProjectLead {
		add(domain.CategoryProgram)
	}
	return out
}

// Filter keeps the entries the scope admits, ordered by start then id.
func Filter(entries []domain.CalendarEntry, scope Scope) []domain.CalendarEntry {
	categories := make(map[domain.Category]struct{}, len(scope.Categories))
	for _, c := range scope.Categories {
		categories[c] = struct{}{}
	}
	vehicles := make(map[string]struct{}, len(scope.VehicleIDs))
	for _, id := range scope.VehicleIDs {
		vehicles[id] = struct{}{}
	}

	out := make([]domain.CalendarEntry, 0, len(entries))
	for _, e := range entries {
		if scope.admits(e, categories, vehicles) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s Scope) admits(e domain.CalendarEntry, categories map[domain.Category]struct{}, vehicles map[string]struct{}) bool {
	if s.IncludeProjectLead && e.Category == domain.CategoryProgram &&
		e.ProjectLeadUserID != nil && *e.ProjectLeadUserID == s.UserID {
		return true
	}
	if _, ok := categories[e.Category]; !ok {
		return false
	}
	if e.Category == domain.CategoryTransport && len(vehicles) > 0 {
		if e.VehicleID == nil {
			return false
		}
		if _, ok := vehicles[*e.VehicleID]; !ok {
			return false
		}
	}
	if s.OnlyMine && !e.AssignedTo(s.UserID) {
		return false
	}
	return true
}
