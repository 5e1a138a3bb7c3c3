package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// MemorySubscriptionRepository keeps subscriptions in process, enforcing the
// same uniqueness and quota rules as the postgres schema.
type MemorySubscriptionRepository struct {
	mu    sync.Mutex
	rows  []domain.CalendarSubscription
	now   func() time.Time
	newID func() string
}

// NewMemorySubscriptionRepository builds an empty in-memory store.
func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

func (m *MemorySubscriptionRepository) ListByUser(_ context.Context, companyID, userID string) ([]domain.CalendarSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.CalendarSubscription
	for _, row := range m.rows {
		if row.OwnedBy(companyID, userID) {
			out = append(out, cloneSubscription(row))
		}
	}
	return out, nil
}

func (m *MemorySubscriptionRepository) CountByUser(_ context.Context, companyID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(companyID, userID), nil
}

func (m *MemorySubscriptionRepository) GetByUserAndCompany(_ context.Context, companyID, userID string) (*domain.CalendarSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.preferenceIndexLocked(companyID, userID); i >= 0 {
		sub := cloneSubscription(m.rows[i])
		return &sub, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *MemorySubscriptionRepository) GetByToken(_ context.Context, token string) (*domain.CalendarSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if row.Token == token {
			sub := cloneSubscription(row)
			return &sub, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *MemorySubscriptionRepository) Insert(_ context.Context, sub *domain.CalendarSubscription, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countLocked(sub.CompanyID, sub.UserID) >= limit {
		return ErrQuotaExceeded
	}
	if m.tokenTakenLocked(sub.Token) {
		return ErrDuplicateToken
	}
	for _, row := range m.rows {
		if !row.OwnedBy(sub.CompanyID, sub.UserID) || row.Mode != domain.SubscriptionModeKind || row.Kind != sub.Kind {
			continue
		}
		if sub.Kind != domain.SubscriptionKindTransportVehicle {
			return ErrDuplicateSubscription
		}
		if row.VehicleID != nil && sub.VehicleID != nil && *row.VehicleID == *sub.VehicleID {
			return ErrDuplicateSubscription
		}
	}

	now := m.now()
	sub.ID = m.newID()
	sub.Mode = domain.SubscriptionModeKind
	sub.CreatedAt = now
	sub.UpdatedAt = now
	m.rows = append(m.rows, cloneSubscription(*sub))
	return nil
}

func (m *MemorySubscriptionRepository) Upsert(_ context.Context, sub *domain.CalendarSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if i := m.preferenceIndexLocked(sub.CompanyID, sub.UserID); i >= 0 {
		existing := &m.rows[i]
		existing.Preferences = clonePreferences(sub.Preferences)
		if !now.After(existing.UpdatedAt) {
			now = existing.UpdatedAt.Add(time.Microsecond)
		}
		existing.UpdatedAt = now
		*sub = cloneSubscription(*existing)
		return nil
	}

	if m.tokenTakenLocked(sub.Token) {
		return ErrDuplicateToken
	}
	sub.ID = m.newID()
	sub.Mode = domain.SubscriptionModePreferences
	sub.Kind = ""
	sub.VehicleID = nil
	sub.CreatedAt = now
	sub.UpdatedAt = now
	m.rows = append(m.rows, cloneSubscription(*sub))
	return nil
}

func (m *MemorySubscriptionRepository) DeleteByID(_ context.Context, id, companyID, ownerUserID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range m.rows {
		if row.ID == id && row.OwnedBy(companyID, ownerUserID) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return row.Token, nil
		}
	}
	return "", pgx.ErrNoRows
}

func (m *MemorySubscriptionRepository) countLocked(companyID, userID string) int {
	count := 0
	for _, row := range m.rows {
		if row.OwnedBy(companyID, userID) {
			count++
		}
	}
	return count
}

func (m *MemorySubscriptionRepository) preferenceIndexLocked(companyID, userID string) int {
	for i, row := range m.rows {
		if row.Mode == domain.SubscriptionModePreferences && row.OwnedBy(companyID, userID) {
			return i
		}
	}
	return -1
}

func (m *MemorySubscriptionRepository) tokenTakenLocked(token string) bool {
	for _, row := range m.rows {
		if row.Token == token {
			return true
		}
	}
	return false
}

func cloneSubscription(sub domain.CalendarSubscription) domain.CalendarSubscription {
	if sub.VehicleID != nil {
		v := *sub.VehicleID
		sub.VehicleID = &v
	}
	sub.Preferences = clonePreferences(sub.Preferences)
	return sub
}

func clonePreferences(p *domain.FeedPreferences) *domain.FeedPreferences {
	if p == nil {
		return nil
	}
	out := *p
	out.Categories = append([]domain.Category(nil), p.Categories...)
	if len(p.VehicleIDs) > 0 {
		out.VehicleIDs = append([]string(nil), p.VehicleIDs...)
	} else {
		out.VehicleIDs = nil
	}
	return &out
}
