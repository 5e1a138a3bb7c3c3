package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/calendar-feeds/internal/auth"
	"github.com/spec-kit/calendar-feeds/internal/domain"
	"github.com/spec-kit/calendar-feeds/internal/events"
	"github.com/spec-kit/calendar-feeds/internal/observability"
	"github.com/spec-kit/calendar-feeds/internal/repository"
	apperrors "github.com/spec-kit/calendar-feeds/pkg/util/errorutil"
)

// CalendarSubscriptionService manages a user's feed subscriptions.
type CalendarSubscriptionService struct {
	subs        repository.CalendarSubscriptionRepository
	vehicles    repository.VehicleRepository
	tokens      auth.FeedTokenGenerator
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	limit       int
	maxAttempts int
}

// SubscriptionDependencies bundles collaborators for the subscription service.
type SubscriptionDependencies struct {
	SubscriptionRepo repository.CalendarSubscriptionRepository
	VehicleRepo      repository.VehicleRepository
	Tokens           auth.FeedTokenGenerator
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Limit            int
	TokenMaxAttempts int
}

// CreateSubscriptionInput selects a predefined feed kind.
type CreateSubscriptionInput struct {
	Kind      domain.SubscriptionKind
	VehicleID *string
}

// PreferencesInput is the structured selection for the preference row.
type PreferencesInput struct {
	Categories             []domain.Category
	OnlyMyAssignments      bool
	IncludeProjectLeadJobs bool
	VehicleIDs             []string
}

// SubscriptionView pairs a subscription with its vehicle label, when it has one.
type SubscriptionView struct {
	domain.CalendarSubscription
	VehicleLabel string
}

// NewCalendarSubscriptionService constructs the service.
func NewCalendarSubscriptionService(deps SubscriptionDependencies) *CalendarSubscriptionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := deps.Limit
	if limit <= 0 {
		limit = 3
	}
	attempts := deps.TokenMaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	return &CalendarSubscriptionService{
		subs:        deps.SubscriptionRepo,
		vehicles:    deps.VehicleRepo,
		tokens:      deps.Tokens,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		limit:       limit,
		maxAttempts: attempts,
	}
}

// Limit returns the per-user subscription quota.
func (s *CalendarSubscriptionService) Limit() int {
	return s.limit
}

// List returns the caller's subscriptions, oldest first.
func (s *CalendarSubscriptionService) List(ctx context.Context, principal domain.Principal) ([]SubscriptionView, error) {
	subs, err := s.subs.ListByUser(ctx, principal.CompanyID, principal.UserID)
	if err != nil {
		return nil, err
	}
	labels := s.vehicleLabels(ctx, principal.CompanyID, subs)

	views := make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		view := SubscriptionView{CalendarSubscription: sub}
		if sub.VehicleID != nil {
			view.VehicleLabel = labels[*sub.VehicleID]
		}
		views = append(views, view)
	}
	return views, nil
}

// Create adds a kind-scoped subscription with a fresh token.
func (s *CalendarSubscriptionService) Create(ctx context.Context, principal domain.Principal, input CreateSubscriptionInput) (*domain.CalendarSubscription, error) {
	count, err := s.subs.CountByUser(ctx, principal.CompanyID, principal.UserID)
	if err != nil {
		return nil, err
	}
	if count >= s.limit {
		s.metrics.Inc(observability.CounterQuotaRejected)
		return nil, apperrors.NewQuotaExceeded(s.limit, nil)
	}

	if !input.Kind.Valid() {
		return nil, apperrors.NewValidationError("unknown subscription kind", map[string]any{"kind": input.Kind})
	}
	var vehicleID *string
	if input.Kind == domain.SubscriptionKindTransportVehicle {
		if input.VehicleID == nil || strings.TrimSpace(*input.VehicleID) == "" {
			return nil, apperrors.NewValidationError("choose a vehicle for a vehicle transport feed", map[string]any{"field": "vehicle_id"})
		}
		id := strings.TrimSpace(*input.VehicleID)
		vehicleID = &id
	}

	sub := &domain.CalendarSubscription{
		CompanyID: principal.CompanyID,
		UserID:    principal.UserID,
		Mode:      domain.SubscriptionModeKind,
		Kind:      input.Kind,
		VehicleID: vehicleID,
	}
	err = s.withFreshToken(ctx, sub, func(ctx context.Context) error {
		return s.subs.Insert(ctx, sub, s.limit)
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrQuotaExceeded):
		s.metrics.Inc(observability.CounterQuotaRejected)
		return nil, apperrors.NewQuotaExceeded(s.limit, err)
	case errors.Is(err, repository.ErrDuplicateSubscription):
		return nil, apperrors.NewConflict("you already have this calendar subscription", map[string]any{"kind": input.Kind})
	default:
		return nil, err
	}

	s.metrics.Inc(observability.CounterSubscriptionsMade)
	s.publish(ctx, events.EventSubscriptionCreated, sub)
	return sub, nil
}

// GetPreferences returns the caller's preference row.
func (s *CalendarSubscriptionService) GetPreferences(ctx context.Context, principal domain.Principal) (*domain.CalendarSubscription, error) {
	sub, err := s.subs.GetByUserAndCompany(ctx, principal.CompanyID, principal.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("calendar preferences", nil)
	}
	return sub, err
}

// UpsertPreferences creates or replaces the caller's preference row, keeping its token.
func (s *CalendarSubscriptionService) UpsertPreferences(ctx context.Context, principal domain.Principal, input PreferencesInput) (*domain.CalendarSubscription, error) {
	prefs, err := normalizePreferences(input)
	if err != nil {
		return nil, err
	}

	sub := &domain.CalendarSubscription{
		CompanyID:   principal.CompanyID,
		UserID:      principal.UserID,
		Mode:        domain.SubscriptionModePreferences,
		Preferences: prefs,
	}
	err = s.withFreshToken(ctx, sub, func(ctx context.Context) error {
		return s.subs.Upsert(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	eventType := events.EventSubscriptionUpdated
	if sub.CreatedAt.Equal(sub.UpdatedAt) {
		eventType = events.EventSubscriptionCreated
	}
	s.publish(ctx, eventType, sub)
	return sub, nil
}

// Delete removes one of the caller's subscriptions. Absent or foreign ids succeed silently.
func (s *CalendarSubscriptionService) Delete(ctx context.Context, principal domain.Principal, subscriptionID string) error {
	token, err := s.subs.DeleteByID(ctx, subscriptionID, principal.CompanyID, principal.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if s.dispatcher != nil {
		ev := events.New(events.EventSubscriptionDeleted, subscriptionID, principal.CompanyID, principal.UserID,
			events.SubscriptionDeletedPayload{TokenHash: auth.FeedTokenFingerprint(token)})
		if err := s.dispatcher.Publish(ctx, ev); err != nil {
			s.logger.Warn("publish subscription event", zap.String("event", string(ev.Type)), zap.Error(err))
		}
	}
	return nil
}

// withFreshToken assigns a new token to sub and runs write, regenerating on token collisions.
func (s *CalendarSubscriptionService) withFreshToken(ctx context.Context, sub *domain.CalendarSubscription, write func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			s.logger.Error("feed token generation unavailable", zap.Error(err))
			return apperrors.NewRandomnessUnavailable(err)
		}
		sub.Token = token

		err = write(ctx)
		if !errors.Is(err, repository.ErrDuplicateToken) {
			return err
		}
		lastErr = err
		s.metrics.Inc(observability.CounterTokenCollision)
		s.logger.Warn("feed token collision, regenerating", zap.Int("attempt", attempt))
	}

	s.metrics.Inc(observability.CounterTokenExhausted)
	s.logger.Error("feed token retries exhausted",
		zap.Int("attempts", s.maxAttempts),
		zap.String("company_id", sub.CompanyID),
		zap.String("user_id", sub.UserID),
		zap.Error(lastErr))
	return apperrors.NewTokenGenerationFailed(lastErr)
}

func (s *CalendarSubscriptionService) vehicleLabels(ctx context.Context, companyID string, subs []domain.CalendarSubscription) map[string]string {
	labels := map[string]string{}
	if s.vehicles == nil {
		return labels
	}
	var ids []string
	for _, sub := range subs {
		if sub.VehicleID != nil {
			ids = append(ids, *sub.VehicleID)
		}
	}
	if len(ids) == 0 {
		return labels
	}
	vehicles, err := s.vehicles.ListByIDs(ctx, companyID, ids)
	if err != nil {
		// labels are cosmetic; the list still renders with bare ids
		s.logger.Warn("load vehicle labels", zap.Error(err))
		return labels
	}
	for _, v := range vehicles {
		labels[v.ID] = v.Label()
	}
	return labels
}

func (s *CalendarSubscriptionService) publish(ctx context.Context, eventType events.EventType, sub *domain.CalendarSubscription) {
	if s.dispatcher == nil {
		return
	}
	ev := events.New(eventType, sub.ID, sub.CompanyID, sub.UserID, events.SubscriptionChangedPayload{
		Mode:      sub.Mode,
		Kind:      sub.Kind,
		VehicleID: sub.VehicleID,
		TokenHash: auth.FeedTokenFingerprint(sub.Token),
	})
	if err := s.dispatcher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish subscription event", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func normalizePreferences(input PreferencesInput) (*domain.FeedPreferences, error) {
	prefs := &domain.FeedPreferences{
		OnlyMyAssignments:      input.OnlyMyAssignments,
		IncludeProjectLeadJobs: input.IncludeProjectLeadJobs,
	}

	seen := map[domain.Category]struct{}{}
	for _, c := range input.Categories {
		if !c.Valid() {
			return nil, apperrors.NewValidationError("unknown calendar category", map[string]any{"category": c})
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		prefs.Categories = append(prefs.Categories, c)
	}
	if len(prefs.Categories) == 0 {
		prefs.Categories = append([]domain.Category(nil), domain.DefaultCategories...)
	}

	seenVehicles := map[string]struct{}{}
	for _, id := range input.VehicleIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seenVehicles[id]; dup {
			continue
		}
		seenVehicles[id] = struct{}{}
		prefs.VehicleIDs = append(prefs.VehicleIDs, id)
	}
	return prefs, nil
}
