package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spec-kit/calendar-feeds/internal/auth"
	"github.com/spec-kit/calendar-feeds/internal/domain"
	"github.com/spec-kit/calendar-feeds/internal/events"
	"github.com/spec-kit/calendar-feeds/internal/observability"
	"github.com/spec-kit/calendar-feeds/internal/repository"
)

var (
	alice = domain.Principal{CompanyID: "company-1", UserID: "alice"}
	bob   = domain.Principal{CompanyID: "company-1", UserID: "bob"}
)

func hexToken(c byte) string {
	return strings.Repeat(string(c), 48)
}

// sequenceTokens replays fixed tokens, then fails.
type sequenceTokens struct {
	mu     sync.Mutex
	tokens []string
}

func (s *sequenceTokens) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) == 0 {
		return "", auth.ErrRandomnessUnavailable
	}
	t := s.tokens[0]
	s.tokens = s.tokens[1:]
	return t, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
	inner  events.Dispatcher
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{inner: events.NewInMemoryDispatcher()}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.events = append(d.events, event)
	d.mu.Unlock()
	return d.inner.Publish(ctx, event)
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.inner.Subscribe(eventType, handler)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type memoryCache struct {
	mu      sync.Mutex
	bodies  map[string]map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{bodies: map[string]map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, fp, version string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	b, ok := c.bodies[fp][version]
	return b, ok, nil
}

func (c *memoryCache) Set(_ context.Context, fp, version string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bodies[fp] == nil {
		c.bodies[fp] = map[string][]byte{}
	}
	c.bodies[fp][version] = body
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, fp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bodies, fp)
	return nil
}

func (c *memoryCache) cached(fp string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies[fp])
}

type subscriptionFixture struct {
	svc        *CalendarSubscriptionService
	repo       *repository.MemorySubscriptionRepository
	metrics    *observability.Metrics
	dispatcher *recordingDispatcher
}

func newSubscriptionFixture(tokens auth.FeedTokenGenerator, limit int) subscriptionFixture {
	repo := repository.NewMemorySubscriptionRepository()
	metrics := observability.NewMetrics()
	dispatcher := newRecordingDispatcher()
	svc := NewCalendarSubscriptionService(SubscriptionDependencies{
		SubscriptionRepo: repo,
		VehicleRepo: repository.NewMemoryVehicleRepository(
			domain.Vehicle{ID: "v1", CompanyID: "company-1", Name: "Van", RegistrationNo: "AB123"},
		),
		Tokens:           tokens,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Limit:            limit,
		TokenMaxAttempts: 5,
	})
	return subscriptionFixture{svc: svc, repo: repo, metrics: metrics, dispatcher: dispatcher}
}

func strPtr(s string) *string { return &s }
