package http

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*ResponseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewResponseCache(client, time.Minute, nil), mr
}

func TestFetchBuildsOnceAndServesCached(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	builds := 0
	build := func(context.Context) (any, error) {
		builds++
		return map[string]float64{"total": 1550}, nil
	}

	key := buildCacheKey("bs", nil, "2025-06-30", "all")
	first, err := cache.Fetch(ctx, "bs", key, build)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	second, err := cache.Fetch(ctx, "bs", key, build)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if builds != 1 {
		t.Fatalf("builds = %d, second fetch must come from cache", builds)
	}
	if string(first) != string(second) {
		t.Fatalf("cached payload differs: %s vs %s", first, second)
	}
	var decoded map[string]float64
	if err := json.Unmarshal(second, &decoded); err != nil {
		t.Fatalf("unmarshal cached payload: %v", err)
	}
	if decoded["total"] != 1550 {
		t.Fatalf("total = %v, want 1550", decoded["total"])
	}
}

func TestFetchExpiredEntryRebuilds(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	builds := 0
	build := func(context.Context) (any, error) {
		builds++
		return builds, nil
	}

	key := buildCacheKey("is", nil, "2025-06-01", "2025-06-30")
	if _, err := cache.Fetch(ctx, "is", key, build); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cache.Fetch(ctx, "is", key, build); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, expired entry must rebuild", builds)
	}
}

func TestFetchBuildErrorNotCached(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	boom := errors.New("ledger unavailable")
	key := buildCacheKey("cf", nil, "2025-06-01", "2025-06-30")
	if _, err := cache.Fetch(ctx, "cf", key, func(context.Context) (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want build error surfaced", err)
	}

	payload, err := cache.Fetch(ctx, "cf", key, func(context.Context) (any, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("fetch after failure: %v", err)
	}
	if string(payload) != `"recovered"` {
		t.Fatalf("payload = %s, failed build must not be cached", payload)
	}
}

func TestBustClearsReportKeysOnly(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	key := buildCacheKey("bs", []int64{2, 1}, "2025-06-30", "all")
	if _, err := cache.Fetch(ctx, "bs", key, func(context.Context) (any, error) { return 1, nil }); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := cache.Bust(ctx); err != nil {
		t.Fatalf("bust: %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("report key survived bust")
	}
	if !mr.Exists("unrelated") {
		t.Fatal("bust must not touch keys outside the report namespace")
	}
}

func TestBuildCacheKeyNormalizesBranches(t *testing.T) {
	a := buildCacheKey("bs", []int64{3, 1, 2}, "2025-06-30")
	b := buildCacheKey("bs", []int64{2, 3, 1}, "2025-06-30")
	if a != b {
		t.Fatalf("equivalent branch sets produced different keys: %s vs %s", a, b)
	}
	all := buildCacheKey("bs", nil, "2025-06-30")
	if a == all {
		t.Fatal("branch-scoped key must differ from the all-branches key")
	}
}

func TestNilCacheBuildsEveryTime(t *testing.T) {
	var cache *ResponseCache
	builds := 0
	for i := 0; i < 2; i++ {
		payload, err := cache.Fetch(context.Background(), "bs", "reports:bs:x", func(context.Context) (any, error) {
			builds++
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if string(payload) != `"ok"` {
			t.Fatalf("payload = %s", payload)
		}
	}
	if builds != 2 {
		t.Fatalf("builds = %d, nil cache must build per request", builds)
	}
}
