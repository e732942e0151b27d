package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a SnapshotCache holding no snapshot.
var ErrCacheMiss = errors.New("catalog: no cached snapshot")

// SnapshotCache keeps the last complete snapshot across restarts.
type SnapshotCache interface {
	Load(ctx context.Context) (*Snapshot, error)
	Store(ctx context.Context, snap *Snapshot) error
}

const (
	DefaultCacheKey = "storefront:catalog:snapshot"
	DefaultCacheTTL = 24 * time.Hour
)

// RedisSnapshotCache stores the snapshot as one JSON value.
type RedisSnapshotCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClient creates a client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		Protocol: 2,
	})
}

func NewRedisSnapshotCache(client *redis.Client, key string, ttl time.Duration) *RedisSnapshotCache {
	if key == "" {
		key = DefaultCacheKey
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisSnapshotCache{client: client, key: key, ttl: ttl}
}

func (c *RedisSnapshotCache) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("catalog: failed to read cached snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("catalog: failed to unmarshal cached snapshot: %w", err)
	}
	return &snap, nil
}

func (c *RedisSnapshotCache) Store(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("catalog: failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog: failed to cache snapshot: %w", err)
	}
	return nil
}
