package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL bounds how stale a cached report may get.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "reports:"

// ResponseCache stores rendered report payloads in Redis and collapses
// concurrent builds of the same report into a single computation. A nil
// cache or nil client degrades to building on every request.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func NewResponseCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{client: client, ttl: ttl, logger: logger}
}

func (c *ResponseCache) log() *slog.Logger {
	if c != nil && c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Fetch returns the cached payload for key, or builds, stores, and
// returns it. The report label feeds the cache metrics.
func (c *ResponseCache) Fetch(ctx context.Context, report, key string, build func(context.Context) (any, error)) ([]byte, error) {
	if c == nil || c.client == nil {
		value, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	}

	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		recordCacheHit(report)
		return payload, nil
	} else if err != redis.Nil {
		c.log().Warn("report cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	ch := c.group.DoChan(key, func() (any, error) {
		recordCacheMiss(report)
		start := time.Now()
		value, err := build(ctx)
		if err != nil {
			return nil, err
		}
		observeBuildDuration(report, time.Since(start))
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log().Warn("report cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return payload, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Bust removes every cached report payload. Posting paths call this so
// readers never see statements older than the last journal write plus
// the TTL.
func (c *ResponseCache) Bust(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("reports: scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// buildCacheKey derives a stable key from the report name and its
// filter components. Branch lists are sorted so equivalent filters
// share an entry.
func buildCacheKey(report string, branchIDs []int64, parts ...string) string {
	branchToken := "all"
	if len(branchIDs) > 0 {
		sorted := append([]int64(nil), branchIDs...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		tokens := make([]string, len(sorted))
		for i, id := range sorted {
			tokens[i] = fmt.Sprintf("%d", id)
		}
		branchToken = strings.Join(tokens, ",")
	}
	return cacheKeyPrefix + report + ":" + strings.Join(append(parts, branchToken), "|")
}
