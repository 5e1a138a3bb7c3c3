package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/calendar-feeds/internal/observability"
	apperrors "github.com/spec-kit/calendar-feeds/pkg/util/errorutil"
)

const (
	limiterSweepThreshold = 10000
	limiterIdleTTL        = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst.
func NewRateLimiter(perSecond float64, burst int, logger *zap.Logger, metrics *observability.Metrics) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Handle is the fiber middleware.
func (rl *RateLimiter) Handle(c *fiber.Ctx) error {
	key := c.IP()
	if !rl.allow(key) {
		rl.metrics.Inc(observability.CounterFeedRateLimited)
		rl.logger.Debug("rate limit exceeded", zap.String("ip", key), zap.String("route", c.Route().Path))
		c.Set(fiber.HeaderRetryAfter, "1")
		return apperrors.NewTooManyRequests("too many requests")
	}
	return c.Next()
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= limiterSweepThreshold {
			rl.sweepLocked(now)
		}
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
}
