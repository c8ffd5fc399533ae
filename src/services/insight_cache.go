package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/username/leora/backend/src/logger"
)

// insightBucketTTL outlives a day bucket so a late request still sees the day's result.
const insightBucketTTL = 36 * time.Hour

const insightKeyPrefix = "insights:"

type memoryInsightCache struct {
	c *cache.Cache
}

// NewMemoryInsightCache keeps day buckets in process memory.
func NewMemoryInsightCache() InsightCache {
	return &memoryInsightCache{c: cache.New(insightBucketTTL, time.Hour)}
}

func (m *memoryInsightCache) Get(_ context.Context, bucket string) (*CachedInsights, bool) {
	v, found := m.c.Get(insightKeyPrefix + bucket)
	if !found {
		return nil, false
	}
	entry := v.(CachedInsights)
	return &entry, true
}

func (m *memoryInsightCache) Set(_ context.Context, bucket string, entry CachedInsights) {
	m.c.Set(insightKeyPrefix+bucket, entry, cache.DefaultExpiration)
}

type redisInsightCache struct {
	client *redis.Client
}

// NewRedisInsightCache connects to redisURL ("host:port" or a redis:// URL)
// and shares day buckets between instances.
func NewRedisInsightCache(ctx context.Context, redisURL string) (InsightCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt, err = redis.ParseURL(fmt.Sprintf("redis://%s", redisURL))
	}
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisInsightCacheWithClient(client), nil
}

// NewRedisInsightCacheWithClient wraps an existing client.
func NewRedisInsightCacheWithClient(client *redis.Client) InsightCache {
	return &redisInsightCache{client: client}
}

func (r *redisInsightCache) Get(ctx context.Context, bucket string) (*CachedInsights, bool) {
	raw, err := r.client.Get(ctx, insightKeyPrefix+bucket).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromContext(ctx).Warn("Redis insight cache read failed", "bucket", bucket, "error", err)
		}
		return nil, false
	}
	var entry CachedInsights
	if err := json.Unmarshal(raw, &entry); err != nil {
		logger.FromContext(ctx).Warn("Discarding malformed cached insights", "bucket", bucket, "error", err)
		return nil, false
	}
	return &entry, true
}

func (r *redisInsightCache) Set(ctx context.Context, bucket string, entry CachedInsights) {
	data, err := json.Marshal(entry)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to encode insights for cache", "bucket", bucket, "error", err)
		return
	}
	if err := r.client.SetEx(ctx, insightKeyPrefix+bucket, data, insightBucketTTL).Err(); err != nil {
		logger.FromContext(ctx).Warn("Redis insight cache write failed", "bucket", bucket, "error", err)
	}
}
