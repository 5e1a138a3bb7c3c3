package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/calendar-feeds/internal/observability"
)

func TestRateLimiterRefillsPerClient(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2, zap.NewNop(), observability.NewMetrics())
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, rl.allow("10.0.0.1"))
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1, zap.NewNop(), nil)
	rl.now = func() time.Time { return now }

	rl.allow("stale")
	now = now.Add(limiterIdleTTL + time.Minute)
	rl.allow("fresh")
	rl.mu.Lock()
	rl.sweepLocked(now)
	_, staleKept := rl.limiters["stale"]
	_, freshKept := rl.limiters["fresh"]
	rl.mu.Unlock()

	assert.False(t, staleKept)
	assert.True(t, freshKept)
}
