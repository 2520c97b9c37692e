package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	rediscache "github.com/go-redis/cache/v9"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/leasedesk-backend/pkg/config"
)

const (
	defaultLocalSize = 1024
	defaultLocalTTL  = 10 * time.Second
)

// Cache stores short-lived read models. A miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SnapshotCache layers a TinyLFU process cache over Redis. Without a Redis client it
// degrades to the process cache alone.
type SnapshotCache struct {
	cache    *rediscache.Cache
	disabled bool
}

func New(raw *goredis.Client, cfg config.CacheConfig) *SnapshotCache {
	size := cfg.LocalSize
	if size <= 0 {
		size = defaultLocalSize
	}
	localTTL := cfg.LocalTTL
	if localTTL <= 0 {
		localTTL = defaultLocalTTL
	}

	opts := &rediscache.Options{
		LocalCache: rediscache.NewTinyLFU(size, localTTL),
	}
	if raw != nil {
		opts.Redis = raw
	}
	return &SnapshotCache{
		cache:    rediscache.New(opts),
		disabled: cfg.DisableCaching,
	}
}

func (c *SnapshotCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.disabled {
		return false, nil
	}
	err := c.cache.Get(ctx, key, dst)
	if errors.Is(err, rediscache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *SnapshotCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.disabled {
		return nil
	}
	return c.cache.Set(&rediscache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (c *SnapshotCache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.disabled {
		return nil
	}
	var errs []error
	for _, key := range keys {
		if err := c.cache.Delete(ctx, key); err != nil && !errors.Is(err, rediscache.ErrCacheMiss) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const snapshotNamespace = "ld:snapshot"

// LeaseRequestKey is the cache key of a lease request payload for a phase.
func LeaseRequestKey(phase string, requestID int64) string {
	return fmt.Sprintf("%s:lease_request:%s:%d", snapshotNamespace, phase, requestID)
}

// AnnualRatesKey is the cache key of one annual rate listing within a generation.
// query must be canonical (sorted, encoded).
func AnnualRatesKey(generation int64, query string) string {
	if query == "" {
		query = "all"
	}
	return fmt.Sprintf("%s:annual_rates:%d:%s", snapshotNamespace, generation, query)
}

// AnnualRatesGenerationKey holds the current listing generation. Bumping it orphans every
// cached listing at once; orphans age out through their TTL.
func AnnualRatesGenerationKey() string {
	return snapshotNamespace + ":annual_rates:generation"
}
