package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

const trackKeyPrefix = "complaint:track:"

// TrackCache caches track-by-code lookups so citizens refreshing a status
// page do not hit Postgres every time. Misses and Redis errors both fall
// through to the store.
type TrackCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrackCache wraps a Redis client. A nil client disables caching.
func NewTrackCache(client *redis.Client, ttl time.Duration) *TrackCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TrackCache{client: client, ttl: ttl}
}

// Get returns the cached complaint for a tracking code, or (nil, false).
func (c *TrackCache) Get(ctx context.Context, code string) (*domain.Complaint, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, trackKeyPrefix+code).Bytes()
	if err != nil {
		return nil, false
	}
	var complaint domain.Complaint
	if err := json.Unmarshal(payload, &complaint); err != nil {
		return nil, false
	}
	return &complaint, true
}

// Set stores the complaint under its tracking code.
func (c *TrackCache) Set(ctx context.Context, complaint *domain.Complaint) error {
	if c == nil || c.client == nil || complaint == nil {
		return nil
	}
	payload, err := json.Marshal(complaint)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, trackKeyPrefix+complaint.TrackingCode, payload, c.ttl).Err()
}

// Invalidate drops the cached entry for a tracking code.
func (c *TrackCache) Invalidate(ctx context.Context, code string) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, trackKeyPrefix+code).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
