package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[string](2, time.Minute)

	c.Set("a", "1")
	if got, ok := c.Get("a"); !ok || got != "1" {
		t.Errorf("Get(a) = %q, %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a, making b the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, time.Nanosecond)

	c.Set("a", 1)
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
	if c.Size() != 0 {
		t.Errorf("Size after expired read = %d", c.Size())
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	c.Set("u1|/day/2026-01-14", 1)
	c.Set("u1|/week/2026-01-14", 2)
	c.Set("u2|/day/2026-01-14", 3)

	if n := c.DeletePrefix("u1|"); n != 2 {
		t.Errorf("DeletePrefix = %d, want 2", n)
	}
	if _, ok := c.Get("u1|/day/2026-01-14"); ok {
		t.Error("u1 entries should be gone")
	}
	if _, ok := c.Get("u2|/day/2026-01-14"); !ok {
		t.Error("u2 entry should survive")
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRU[int](10, time.Nanosecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(time.Millisecond)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired = %d, want 2", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d", c.Size())
	}
}
