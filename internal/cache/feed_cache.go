package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedKeyPrefix = "calendar:feed:"

// FeedCache stores rendered feeds keyed by token fingerprint. Each entry is
// tagged with the subscription version it was rendered from; a lookup for any
// other version misses.
type FeedCache interface {
	Get(ctx context.Context, fingerprint, version string) ([]byte, bool, error)
	Set(ctx context.Context, fingerprint, version string, body []byte) error
	// Invalidate drops every version cached for the fingerprint.
	Invalidate(ctx context.Context, fingerprint string) error
}

type redisFeedCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisFeedCache builds a cache over a go-redis client.
func NewRedisFeedCache(client redis.Cmdable, ttl time.Duration) FeedCache {
	if client == nil || ttl <= 0 {
		return NewNoopFeedCache()
	}
	return &redisFeedCache{client: client, ttl: ttl}
}

func (c *redisFeedCache) Get(ctx context.Context, fingerprint, version string) ([]byte, bool, error) {
	body, err := c.client.HGet(ctx, feedKeyPrefix+fingerprint, version).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *redisFeedCache) Set(ctx context.Context, fingerprint, version string, body []byte) error {
	key := feedKeyPrefix + fingerprint
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, version, body)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	return err
}

func (c *redisFeedCache) Invalidate(ctx context.Context, fingerprint string) error {
	return c.client.Del(ctx, feedKeyPrefix+fingerprint).Err()
}

type noopFeedCache struct{}

// NewNoopFeedCache returns a cache that never hits.
func NewNoopFeedCache() FeedCache { return noopFeedCache{} }

func (noopFeedCache) Get(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }
func (noopFeedCache) Set(context.Context, string, string, []byte) error         { return nil }
func (noopFeedCache) Invalidate(context.Context, string) error                  { return nil }
