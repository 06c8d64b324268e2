package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Set(ctx, "a", 1, time.Minute)
	got, ok := c.Get(ctx, "a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", got, ok)
	}

	// Overwrite.
	c.Set(ctx, "a", 2, time.Minute)
	if got, _ := c.Get(ctx, "a"); got != 2 {
		t.Errorf("Get(a) after overwrite = %d, want 2", got)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, string](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", "v", 10*time.Millisecond)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("entry missing before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expired entry still returned")
	}
}

func TestCache_Sweep(t *testing.T) {
	c := New[string, int](10 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", 1, time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	if c.Len() != 0 {
		t.Errorf("len = %d after sweep, want 0", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", 1, time.Minute)
	c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("deleted entry still returned")
	}
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Close()
	c.Close() // must not panic
}
