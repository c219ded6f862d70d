package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Values []string `json:"values"`
}

func initTest(t *testing.T, ttl time.Duration) {
	t.Helper()
	Reset()
	Init("", ttl, 100, time.Minute)
	t.Cleanup(Reset)
}

func TestGetSet(t *testing.T) {
	initTest(t, time.Minute)
	ctx := context.Background()

	key := Key("featured", "limit=10")
	if _, ok := Get[payload](ctx, key); ok {
		t.Fatal("expected miss on empty cache")
	}

	Set(ctx, key, payload{Values: []string{"a", "b"}})
	got, ok := Get[payload](ctx, key)
	if !ok || len(got.Values) != 2 {
		t.Fatalf("expected hit with 2 values, got %+v ok=%v", got, ok)
	}
}

func TestExpiry(t *testing.T) {
	initTest(t, 10*time.Millisecond)
	ctx := context.Background()

	key := Key("filter_options")
	Set(ctx, key, payload{Values: []string{"x"}})
	time.Sleep(20 * time.Millisecond)
	if _, ok := Get[payload](ctx, key); ok {
		t.Error("expected miss after TTL")
	}
}

func TestInvalidate(t *testing.T) {
	initTest(t, time.Minute)
	ctx := context.Background()

	k1 := Key("featured", "limit=10")
	k2 := Key("featured", "limit=20")
	Set(ctx, k1, payload{Values: []string{"a"}})
	Set(ctx, k2, payload{Values: []string{"b"}})

	Invalidate("featured")

	// Old keys are gone from L1 and new keys carry a bumped version.
	if _, ok := Get[payload](ctx, Key("featured", "limit=10")); ok {
		t.Error("expected miss after invalidation")
	}
	if Key("featured", "limit=10") == k1 {
		t.Error("expected versioned key to change after invalidation")
	}
}

func TestKeyIncludesParams(t *testing.T) {
	initTest(t, time.Minute)
	if Key("featured", "limit=10") == Key("featured", "limit=20") {
		t.Error("keys with different params must differ")
	}
}

func TestStats(t *testing.T) {
	initTest(t, time.Minute)
	ctx := context.Background()

	key := Key("featured", "limit=5")
	Get[payload](ctx, key)
	Set(ctx, key, payload{})
	Get[payload](ctx, key)

	h, m := Stats()
	if h != 1 || m != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", h, m)
	}
}
