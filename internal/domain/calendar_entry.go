package domain

import "time"

// CalendarEntry is a materialized job, crew or vehicle period that feeds render.
type CalendarEntry struct {
	ID                string
	CompanyID         string
	Category          Category
	Source            string
	Title             string
	Description       string
	Location          string
	StartAt           time.Time
	EndAt             time.Time
	AllDay            bool
	JobID             *string
	VehicleID         *string
	ProjectLeadUserID *string
	AssignedUserIDs   []string
	UpdatedAt         time.Time
}

// AssignedTo reports whether userID is among the entry's assignees.
func (e CalendarEntry) AssignedTo(userID string) bool {
	for _, id := range e.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
