package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/calendar-feeds/internal/cache"
	"github.com/spec-kit/calendar-feeds/internal/events"
)

// SubscriptionEventsService audits subscription changes and evicts stale feeds.
type SubscriptionEventsService struct {
	dispatcher events.Dispatcher
	cache      cache.FeedCache
	logger     *zap.Logger
}

// NewSubscriptionEventsService creates the service.
func NewSubscriptionEventsService(dispatcher events.Dispatcher, feedCache cache.FeedCache, logger *zap.Logger) *SubscriptionEventsService {
	return &SubscriptionEventsService{
		dispatcher: dispatcher,
		cache:      feedCache,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *SubscriptionEventsService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSubscriptionCreated, n.handleCreated)
	n.dispatcher.Subscribe(events.EventSubscriptionUpdated, n.handleUpdated)
	n.dispatcher.Subscribe(events.EventSubscriptionDeleted, n.handleDeleted)
}

func (n *SubscriptionEventsService) handleCreated(_ context.Context, event events.Event) error {
	n.audit(event)
	return nil
}

func (n *SubscriptionEventsService) handleUpdated(ctx context.Context, event events.Event) error {
	n.audit(event)
	if payload, ok := event.Payload.(events.SubscriptionChangedPayload); ok {
		return n.evict(ctx, payload.TokenHash)
	}
	return nil
}

func (n *SubscriptionEventsService) handleDeleted(ctx context.Context, event events.Event) error {
	n.audit(event)
	if payload, ok := event.Payload.(events.SubscriptionDeletedPayload); ok {
		return n.evict(ctx, payload.TokenHash)
	}
	return nil
}

func (n *SubscriptionEventsService) audit(event events.Event) {
	n.logger.Info("calendar subscription event",
		zap.String("event", string(event.Type)),
		zap.String("subscription_id", event.SubscriptionID),
		zap.String("company_id", event.CompanyID),
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload))
}

func (n *SubscriptionEventsService) evict(ctx context.Context, fingerprint string) error {
	if n.cache == nil || fingerprint == "" {
		return nil
	}
	if err := n.cache.Invalidate(ctx, fingerprint); err != nil {
		n.logger.Warn("evict cached feed", zap.String("token_hash", fingerprint), zap.Error(err))
		return err
	}
	return nil
}
