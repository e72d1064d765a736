package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("page", "https://example.com/post")
		k2 := CacheKey("page", "https://example.com/post")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("page", "https://example.com/one")
		k2 := CacheKey("page", "https://example.com/two")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "li:" {
			t.Errorf("expected li: prefix, got %q", k[:3])
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheGet(ctx, key); ok {
		t.Fatal("unexpected hit before set")
	}

	CacheSet(ctx, key, []byte("payload"))
	data, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}
}

func TestCacheExpiry(t *testing.T) {
	InitCache("", 10*time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")
	CacheSet(ctx, key, []byte("short-lived"))

	time.Sleep(30 * time.Millisecond)
	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expired entry still served")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", 1*time.Minute, 10, 5*time.Minute)

	ctx := context.Background()
	for i := 0; i < 25; i++ {
		CacheSet(ctx, CacheKey("evict", fmt.Sprintf("%d", i)), []byte("x"))
	}

	count := 0
	pageCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 10 {
		t.Errorf("L1 holds %d entries, want <= 10", count)
	}
}
