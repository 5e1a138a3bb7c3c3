package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

func ptr(s string) *string { return &s }

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func entry(id string, category domain.Category, offset time.Duration) domain.CalendarEntry {
	return domain.CalendarEntry{
		ID:       id,
		Category: category,
		Title:    id,
		StartAt:  t0.Add(offset),
		EndAt:    t0.Add(offset + time.Hour),
	}
}

func TestScopeForKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind    domain.SubscriptionKind
		vehicle *string
		want    Scope
	}{
		{kind: domain.SubscriptionKindAllJobs, want: Scope{UserID: "u1", Categories: []domain.Category{domain.CategoryProgram}}},
		{kind: domain.SubscriptionKindProjectLeadJobs, want: Scope{UserID: "u1", IncludeProjectLead: true}},
		{kind: domain.SubscriptionKindCrewJobs, want: Scope{UserID: "u1", Categories: []domain.Category{domain.CategoryCrew}, OnlyMine: true}},
		{kind: domain.SubscriptionKindTransportVehicle, vehicle: ptr("v1"), want: Scope{UserID: "u1", Categories: []domain.Category{domain.CategoryTransport}, VehicleIDs: []string{"v1"}}},
		{kind: domain.SubscriptionKindTransportAll, want: Scope{UserID: "u1", Categories: []domain.Category{domain.CategoryTransport}}},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			sub := domain.CalendarSubscription{UserID: "u1", Mode: domain.SubscriptionModeKind, Kind: tc.kind, VehicleID: tc.vehicle}
			assert.Equal(t, tc.want, ScopeFor(sub))
		})
	}
}

func TestScopeForPreferences(t *testing.T) {
	t.Parallel()

	sub := domain.CalendarSubscription{
		UserID: "u1",
		Mode:   domain.SubscriptionModePreferences,
		Preferences: &domain.FeedPreferences{
			Categories:             []domain.Category{domain.CategoryEquipment, domain.CategoryTransport},
			OnlyMyAssignments:      true,
			IncludeProjectLeadJobs: true,
			VehicleIDs:             []string{"v2"},
		},
	}
	scope := ScopeFor(sub)

	assert.True(t, scope.OnlyMine)
	assert.Equal(t, []string{"v2"}, scope.VehicleIDs)
	assert.Equal(t,
		[]domain.Category{domain.CategoryEquipment, domain.CategoryTransport, domain.CategoryProgram},
		scope.FetchCategories())
}

func TestFilterProjectLead(t *testing.T) {
	t.Parallel()

	mine := entry("mine", domain.CategoryProgram, 0)
	mine.ProjectLeadUserID = ptr("u1")
	theirs := entry("theirs", domain.CategoryProgram, time.Hour)
	theirs.ProjectLeadUserID = ptr("u2")
	crew := entry("crew", domain.CategoryCrew, 0)

	got := Filter([]domain.CalendarEntry{theirs, crew, mine}, Scope{UserID: "u1", IncludeProjectLead: true})
	assert.Equal(t, []domain.CalendarEntry{mine}, got)
}

func TestFilterOnlyMine(t *testing.T) {
	t.Parallel()

	assigned := entry("assigned", domain.CategoryCrew, 0)
	assigned.AssignedUserIDs = []string{"u1"}
	other := entry("other", domain.CategoryCrew, 0)
	other.AssignedUserIDs = []string{"u2"}

	got := Filter([]domain.CalendarEntry{other, assigned}, Scope{UserID: "u1", Categories: []domain.Category{domain.CategoryCrew}, OnlyMine: true})
	assert.Len(t, got, 1)
	assert.Equal(t, "assigned", got[0].ID)
}

func TestFilterVehicles(t *testing.T) {
	t.Parallel()

	v1 := entry("v1-run", domain.CategoryTransport, 2*time.Hour)
	v1.VehicleID = ptr("v1")
	v2 := entry("v2-run", domain.CategoryTransport, time.Hour)
	v2.VehicleID = ptr("v2")
	unassigned := entry("loose", domain.CategoryTransport, 0)
	equipment := entry("equip", domain.CategoryEquipment, 0)

	all := []domain.CalendarEntry{v1, v2, unassigned, equipment}

	one := Filter(all, Scope{Categories: []domain.Category{domain.CategoryTransport}, VehicleIDs: []string{"v1"}})
	assert.Equal(t, []domain.CalendarEntry{v1}, one)

	every := Filter(all, Scope{Categories: []domain.Category{domain.CategoryTransport}})
	assert.Equal(t, []string{"loose", "v2-run", "v1-run"}, []string{every[0].ID, every[1].ID, every[2].ID})
}
