package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Close()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "step", 42, 10*time.Second)

	if v, ok := c.Get(ctx, "step"); !ok || v != 42 {
		t.Fatalf("Get = %d, %v", v, ok)
	}

	now = now.Add(10 * time.Second)
	if _, ok := c.Get(ctx, "step"); ok {
		t.Fatal("expected entry to be expired")
	}

	c.evictExpired()
	if c.Len() != 0 {
		t.Errorf("Len = %d after eviction", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](time.Minute)
	defer c.Close()

	c.Set(ctx, "k", "v", time.Minute)
	c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
	c.Close()
}
