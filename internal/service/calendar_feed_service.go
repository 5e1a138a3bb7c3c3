package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/calendar-feeds/internal/auth"
	"github.com/spec-kit/calendar-feeds/internal/cache"
	"github.com/spec-kit/calendar-feeds/internal/calendar"
	"github.com/spec-kit/calendar-feeds/internal/domain"
	"github.com/spec-kit/calendar-feeds/internal/observability"
	"github.com/spec-kit/calendar-feeds/internal/repository"
	apperrors "github.com/spec-kit/calendar-feeds/pkg/util/errorutil"
)

// FeedSettings bounds what one rendered feed may contain.
type FeedSettings struct {
	ProductName string
	PastDays    int
	FutureDays  int
	MaxEntries  int
}

// CalendarFeedService resolves feed tokens into iCalendar documents.
type CalendarFeedService struct {
	subs     repository.CalendarSubscriptionRepository
	entries  repository.CalendarEntryRepository
	vehicles repository.VehicleRepository
	cache    cache.FeedCache
	renderer *calendar.Renderer
	metrics  *observability.Metrics
	logger   *zap.Logger
	settings FeedSettings
	now      func() time.Time
}

// FeedDependencies bundles collaborators for the feed service.
type FeedDependencies struct {
	SubscriptionRepo repository.CalendarSubscriptionRepository
	EntryRepo        repository.CalendarEntryRepository
	VehicleRepo      repository.VehicleRepository
	Cache            cache.FeedCache
	Renderer         *calendar.Renderer
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Settings         FeedSettings
	Now              func() time.Time
}

// NewCalendarFeedService constructs the service.
func NewCalendarFeedService(deps FeedDependencies) *CalendarFeedService {
	svc := &CalendarFeedService{
		subs:     deps.SubscriptionRepo,
		entries:  deps.EntryRepo,
		vehicles: deps.VehicleRepo,
		cache:    deps.Cache,
		renderer: deps.Renderer,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		settings: deps.Settings,
		now:      deps.Now,
	}
	if svc.cache == nil {
		svc.cache = cache.NewNoopFeedCache()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.settings.ProductName == "" {
		svc.settings.ProductName = "calendar-feeds"
	}
	if svc.renderer == nil {
		svc.renderer = calendar.NewRenderer(svc.settings.ProductName, time.Hour)
	}
	if svc.settings.FutureDays <= 0 {
		svc.settings.FutureDays = 365
	}
	if svc.settings.MaxEntries <= 0 {
		svc.settings.MaxEntries = 1000
	}
	return svc
}

// Render returns the feed for token. Malformed and unknown tokens fail identically.
// The store is consulted on every request so a deleted subscription stops
// resolving at once; the cache only holds bodies for the row's current version.
func (s *CalendarFeedService) Render(ctx context.Context, token string) ([]byte, error) {
	if !auth.IsWellFormedFeedToken(token) {
		return nil, feedNotFound()
	}

	sub, err := s.subs.GetByToken(ctx, token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, feedNotFound()
	}
	if err != nil {
		return nil, err
	}

	fingerprint := auth.FeedTokenFingerprint(token)
	version := feedVersion(*sub)
	body, hit, err := s.cache.Get(ctx, fingerprint, version)
	if err != nil {
		s.metrics.Inc(observability.CounterFeedCacheError)
		s.logger.Warn("feed cache read failed", zap.String("token_hash", fingerprint), zap.Error(err))
	} else if hit {
		s.metrics.Inc(observability.CounterFeedCacheHit)
		return body, nil
	}

	body, err = s.build(ctx, *sub)
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(observability.CounterFeedRendered)

	if err := s.cache.Set(ctx, fingerprint, version, body); err != nil {
		s.metrics.Inc(observability.CounterFeedCacheError)
		s.logger.Warn("feed cache write failed", zap.String("token_hash", fingerprint), zap.Error(err))
	}
	return body, nil
}

// feedVersion changes whenever the stored selection does.
func feedVersion(sub domain.CalendarSubscription) string {
	return sub.ID + ":" + strconv.FormatInt(sub.UpdatedAt.UnixNano(), 10)
}

func (s *CalendarFeedService) build(ctx context.Context, sub domain.CalendarSubscription) ([]byte, error) {
	now := s.now().UTC()
	scope := calendar.ScopeFor(sub)

	var entries []domain.CalendarEntry
	if categories := scope.FetchCategories(); len(categories) > 0 {
		var err error
		entries, err = s.entries.List(ctx, repository.EntryQuery{
			CompanyID:  sub.CompanyID,
			From:       now.AddDate(0, 0, -s.settings.PastDays),
			To:         now.AddDate(0, 0, s.settings.FutureDays),
			Categories: categories,
			Limit:      s.settings.MaxEntries,
		})
		if err != nil {
			return nil, err
		}
	}

	name := calendar.FeedName(s.settings.ProductName, sub, s.vehicleLabel(ctx, sub))
	return s.renderer.Render(name, calendar.Filter(entries, scope), now), nil
}

func (s *CalendarFeedService) vehicleLabel(ctx context.Context, sub domain.CalendarSubscription) string {
	if sub.VehicleID == nil || s.vehicles == nil {
		return ""
	}
	vehicles, err := s.vehicles.ListByIDs(ctx, sub.CompanyID, []string{*sub.VehicleID})
	if err != nil {
		s.logger.Warn("load vehicle label", zap.String("subscription_id", sub.ID), zap.Error(err))
		return ""
	}
	if len(vehicles) == 0 {
		return ""
	}
	return vehicles[0].Label()
}

func feedNotFound() error {
	return apperrors.NewNotFound("calendar feed", nil)
}
