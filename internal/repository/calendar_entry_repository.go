package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// EntryQuery bounds a feed read to one company, window and category set.
type EntryQuery struct {
	CompanyID  string
	From       time.Time
	To         time.Time
	Categories []domain.Category
	Limit      int
}

// CalendarEntryRepository reads the calendar_entries projection.
type CalendarEntryRepository interface {
	List(ctx context.Context, q EntryQuery) ([]domain.CalendarEntry, error)
}

type calendarEntryRepository struct {
	db DBTX
}

// NewCalendarEntryRepository instantiates repository.
func NewCalendarEntryRepository(db DBTX) CalendarEntryRepository {
	return &calendarEntryRepository{db: db}
}

func (r *calendarEntryRepository) List(ctx context.Context, q EntryQuery) ([]domain.CalendarEntry, error) {
	const query = `
        SELECT id, company_id, category, source, title, description, location, start_at, end_at, all_day,
               job_id, vehicle_id, project_lead_user_id::text, assigned_user_ids::text[], updated_at
        FROM calendar_entries
        WHERE company_id=$1 AND end_at >= $2 AND start_at < $3 AND category = ANY($4)
        ORDER BY start_at ASC, id ASC
        LIMIT $5`
	rows, err := r.db.Query(ctx, query, q.CompanyID, q.From, q.To, categoryStrings(q.Categories), q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CalendarEntry
	for rows.Next() {
		var (
			entry    domain.CalendarEntry
			category string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.CompanyID,
			&category,
			&entry.Source,
			&entry.Title,
			&entry.Description,
			&entry.Location,
			&entry.StartAt,
			&entry.EndAt,
			&entry.AllDay,
			&entry.JobID,
			&entry.VehicleID,
			&entry.ProjectLeadUserID,
			&entry.AssignedUserIDs,
			&entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entry.Category = domain.Category(category)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MemoryEntryRepository serves entries seeded in process.
type MemoryEntryRepository struct {
	mu      sync.RWMutex
	entries []domain.CalendarEntry
}

// NewMemoryEntryRepository builds a store seeded with entries.
func NewMemoryEntryRepository(entries ...domain.CalendarEntry) *MemoryEntryRepository {
	return &MemoryEntryRepository{entries: append([]domain.CalendarEntry(nil), entries...)}
}

// Add appends entries to the store.
func (m *MemoryEntryRepository) Add(entries ...domain.CalendarEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
}

func (m *MemoryEntryRepository) List(_ context.Context, q EntryQuery) ([]domain.CalendarEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[domain.Category]struct{}, len(q.Categories))
	for _, c := range q.Categories {
		wanted[c] = struct{}{}
	}

	var out []domain.CalendarEntry
	for _, e := range m.entries {
		if e.CompanyID != q.CompanyID || e.EndAt.Before(q.From) || !e.StartAt.Before(q.To) {
			continue
		}
		if _, ok := wanted[e.Category]; !ok {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
