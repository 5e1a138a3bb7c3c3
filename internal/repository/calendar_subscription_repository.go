package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/calendar-feeds/internal/domain"
)

// CalendarSubscriptionRepository persists feed subscriptions.
type CalendarSubscriptionRepository interface {
	ListByUser(ctx context.Context, companyID, userID string) ([]domain.CalendarSubscription, error)
	CountByUser(ctx context.Context, companyID, userID string) (int, error)
	GetByUserAndCompany(ctx context.Context, companyID, userID string) (*domain.CalendarSubscription, error)
	GetByToken(ctx context.Context, token string) (*domain.CalendarSubscription, error)
	// Insert adds a kind-scoped row unless the owner already holds limit rows.
	Insert(ctx context.Context, sub *domain.CalendarSubscription, limit int) error
	// Upsert writes the owner's preference row, keeping the stored token when one exists.
	Upsert(ctx context.Context, sub *domain.CalendarSubscription) error
	// DeleteByID removes an owned row and returns its token; pgx.ErrNoRows when nothing matched.
	DeleteByID(ctx context.Context, id, companyID, ownerUserID string) (string, error)
}

type calendarSubscriptionRepository struct {
	db DBTX
}

// NewCalendarSubscriptionRepository instantiates the postgres repository.
func NewCalendarSubscriptionRepository(db DBTX) CalendarSubscriptionRepository {
	return &calendarSubscriptionRepository{db: db}
}

const subscriptionColumns = `id, company_id, user_id, token, mode, kind, vehicle_id, categories, vehicle_ids,
               only_my_assignments, include_project_lead_jobs, created_at, updated_at`

// subscriptionRow mirrors one calendar_subscriptions row as scanned from pgx.
type subscriptionRow struct {
	ID                     string
	CompanyID              string
	UserID                 string
	Token                  string
	Mode                   string
	Kind                   *string
	VehicleID              *string
	Categories             []string
	VehicleIDs             []string
	OnlyMyAssignments      bool
	IncludeProjectLeadJobs bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (r *subscriptionRow) targets() []any {
	return []any{
		&r.ID, &r.CompanyID, &r.UserID, &r.Token, &r.Mode, &r.Kind, &r.VehicleID,
		&r.Categories, &r.VehicleIDs, &r.OnlyMyAssignments, &r.IncludeProjectLeadJobs,
		&r.CreatedAt, &r.UpdatedAt,
	}
}

func (r *subscriptionRow) toDomain() (*domain.CalendarSubscription, error) {
	sub := &domain.CalendarSubscription{
		ID:        r.ID,
		CompanyID: r.CompanyID,
		UserID:    r.UserID,
		Token:     r.Token,
		Mode:      domain.SubscriptionMode(r.Mode),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	switch sub.Mode {
	case domain.SubscriptionModeKind:
		if r.Kind == nil || !domain.SubscriptionKind(*r.Kind).Valid() {
			return nil, fmt.Errorf("subscription %s: invalid kind", r.ID)
		}
		sub.Kind = domain.SubscriptionKind(*r.Kind)
		if sub.Kind == domain.SubscriptionKindTransportVehicle {
			sub.VehicleID = r.VehicleID
		}
	case domain.SubscriptionModePreferences:
		prefs := &domain.FeedPreferences{
			OnlyMyAssignments:      r.OnlyMyAssignments,
			IncludeProjectLeadJobs: r.IncludeProjectLeadJobs,
		}
		for _, c := range r.Categories {
			category := domain.Category(c)
			if !category.Valid() {
				return nil, fmt.Errorf("subscription %s: invalid category %q", r.ID, c)
			}
			prefs.Categories = append(prefs.Categories, category)
		}
		if len(r.VehicleIDs) > 0 {
			prefs.VehicleIDs = append([]string(nil), r.VehicleIDs...)
		}
		sub.Preferences = prefs
	default:
		return nil, fmt.Errorf("subscription %s: invalid mode %q", r.ID, r.Mode)
	}
	return sub, nil
}

func (r *calendarSubscriptionRepository) ListByUser(ctx context.Context, companyID, userID string) ([]domain.CalendarSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
        FROM calendar_subscriptions
        WHERE company_id=$1 AND user_id=$2
        ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, companyID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.CalendarSubscription
	for rows.Next() {
		var row subscriptionRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, err
		}
		sub, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (r *calendarSubscriptionRepository) CountByUser(ctx context.Context, companyID, userID string) (int, error) {
	return countByUser(ctx, r.db, companyID, userID)
}

func (r *calendarSubscriptionRepository) GetByUserAndCompany(ctx context.Context, companyID, userID string) (*domain.CalendarSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
        FROM calendar_subscriptions
        WHERE company_id=$1 AND user_id=$2 AND mode='preferences'`
	return r.fetchSingle(ctx, query, companyID, userID)
}

func (r *calendarSubscriptionRepository) GetByToken(ctx context.Context, token string) (*domain.CalendarSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
        FROM calendar_subscriptions WHERE token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *calendarSubscriptionRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.CalendarSubscription, error) {
	var row subscriptionRow
	if err := r.db.QueryRow(ctx, query, args...).Scan(row.targets()...); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *calendarSubscriptionRepository) Insert(ctx context.Context, sub *domain.CalendarSubscription, limit int) error {
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	const insertQuery = `
        INSERT INTO calendar_subscriptions (company_id, user_id, token, mode, kind, vehicle_id)
        VALUES ($1,$2,$3,'kind',$4,$5)
        RETURNING id, created_at, updated_at`

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		// serializes concurrent creates for one owner so the count below stays accurate
		if _, err := tx.Exec(ctx, lockQuery, ownerLockKey(sub.CompanyID, sub.UserID)); err != nil {
			return err
		}
		count, err := countByUser(ctx, tx, sub.CompanyID, sub.UserID)
		if err != nil {
			return err
		}
		if count >= limit {
			return ErrQuotaExceeded
		}
		err = tx.QueryRow(ctx, insertQuery,
			sub.CompanyID,
			sub.UserID,
			sub.Token,
			string(sub.Kind),
			sub.VehicleID,
		).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
		if err != nil {
			return classifyWriteError(err)
		}
		sub.Mode = domain.SubscriptionModeKind
		return nil
	})
}

func (r *calendarSubscriptionRepository) Upsert(ctx context.Context, sub *domain.CalendarSubscription) error {
	if sub.Preferences == nil {
		return fmt.Errorf("upsert subscription: preferences required")
	}
	query := `
        INSERT INTO calendar_subscriptions (company_id, user_id, token, mode, categories, vehicle_ids,
            only_my_assignments, include_project_lead_jobs)
        VALUES ($1,$2,$3,'preferences',$4,$5,$6,$7)
        ON CONFLICT (company_id, user_id) WHERE mode = 'preferences'
        DO UPDATE SET categories=EXCLUDED.categories, vehicle_ids=EXCLUDED.vehicle_ids,
            only_my_assignments=EXCLUDED.only_my_assignments,
            include_project_lead_jobs=EXCLUDED.include_project_lead_jobs, updated_at=NOW()
        RETURNING ` + subscriptionColumns

	prefs := sub.Preferences
	var row subscriptionRow
	err := r.db.QueryRow(ctx, query,
		sub.CompanyID,
		sub.UserID,
		sub.Token,
		categoryStrings(prefs.Categories),
		nonNilStrings(prefs.VehicleIDs),
		prefs.OnlyMyAssignments,
		prefs.IncludeProjectLeadJobs,
	).Scan(row.targets()...)
	if err != nil {
		return classifyWriteError(err)
	}
	stored, err := row.toDomain()
	if err != nil {
		return err
	}
	*sub = *stored
	return nil
}

func (r *calendarSubscriptionRepository) DeleteByID(ctx context.Context, id, companyID, ownerUserID string) (string, error) {
	const query = `DELETE FROM calendar_subscriptions WHERE id=$1 AND company_id=$2 AND user_id=$3 RETURNING token`
	var token string
	if err := r.db.QueryRow(ctx, query, id, companyID, ownerUserID).Scan(&token); err != nil {
		return "", err
	}
	return token, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func countByUser(ctx context.Context, q queryRower, companyID, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM calendar_subscriptions WHERE company_id=$1 AND user_id=$2`
	var count int64
	if err := q.QueryRow(ctx, query, companyID, userID).Scan(&count); err != nil {
		return 0, err
	}
	return int(count), nil
}

func ownerLockKey(companyID, userID string) string {
	return "calendar_subscriptions:" + companyID + ":" + userID
}

func categoryStrings(categories []domain.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
