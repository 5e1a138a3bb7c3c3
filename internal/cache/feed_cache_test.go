package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, FeedCache) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, NewRedisFeedCache(client, ttl)
}

func TestRedisFeedCacheRoundTrip(t *testing.T) {
	t.Parallel()
	srv, c := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "fp", "v1")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "fp", "v1", []byte("BEGIN:VCALENDAR")))
	assert.True(t, srv.Exists("calendar:feed:fp"))

	body, hit, err := c.Get(ctx, "fp", "v1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "BEGIN:VCALENDAR", string(body))

	require.NoError(t, c.Invalidate(ctx, "fp"))
	_, hit, err = c.Get(ctx, "fp", "v1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisFeedCacheMissesOtherVersions(t *testing.T) {
	t.Parallel()
	_, c := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fp", "v1", []byte("old")))

	_, hit, err := c.Get(ctx, "fp", "v2")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "fp", "v2", []byte("new")))
	require.NoError(t, c.Invalidate(ctx, "fp"))
	for _, version := range []string{"v1", "v2"} {
		_, hit, err = c.Get(ctx, "fp", version)
		require.NoError(t, err)
		assert.False(t, hit, version)
	}
}

func TestRedisFeedCacheExpires(t *testing.T) {
	t.Parallel()
	srv, c := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fp", "v1", []byte("x")))
	srv.FastForward(2 * time.Minute)

	_, hit, err := c.Get(ctx, "fp", "v1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisFeedCacheSurfacesErrors(t *testing.T) {
	t.Parallel()
	srv, c := newTestCache(t, time.Minute)
	srv.Close()

	_, _, err := c.Get(context.Background(), "fp", "v1")
	assert.Error(t, err)
}

func TestNoopFeedCache(t *testing.T) {
	t.Parallel()
	c := NewRedisFeedCache(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fp", "v1", []byte("x")))
	_, hit, err := c.Get(ctx, "fp", "v1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(ctx, "fp"))
}
