package cache

import (
	"testing"
	"time"
)

func TestSplitCache_GetPut(t *testing.T) {
	c := NewSplitCache(10, time.Minute)
	key := Key("hello world", 100, 0, "chars")

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(key, []string{"hello world"})
	got, ok := c.Get(key)
	if !ok || len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	// callers must not be able to mutate the cached slice
	got[0] = "mutated"
	again, _ := c.Get(key)
	if again[0] != "hello world" {
		t.Errorf("cached value was mutated: %q", again[0])
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestSplitCache_EmptyResultIsCached(t *testing.T) {
	c := NewSplitCache(10, time.Minute)
	c.Put("k", nil)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSplitCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewSplitCache(2, time.Minute)
	c.Put("a", []string{"a"})
	c.Put("b", []string{"b"})

	c.Get("a")
	c.Put("c", []string{"c"})

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
}

func TestSplitCache_TTL(t *testing.T) {
	c := NewSplitCache(10, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Put("k", []string{"v"})
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, len %d", c.Len())
	}
}

func TestSplitCache_Invalidate(t *testing.T) {
	c := NewSplitCache(10, time.Minute)
	c.Put("a", []string{"a"})
	c.Put("b", []string{"b"})

	c.Invalidate()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after invalidate")
	}
}

func TestKey(t *testing.T) {
	base := Key("text", 100, 10, "chars")
	variants := []string{
		Key("text ", 100, 10, "chars"),
		Key("text", 101, 10, "chars"),
		Key("text", 100, 11, "chars"),
		Key("text", 100, 10, "bytes"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
	if Key("text", 100, 10, "chars") != base {
		t.Error("key is not deterministic")
	}
}
