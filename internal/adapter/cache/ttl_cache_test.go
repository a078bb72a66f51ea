package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string](time.Minute, 10)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Set("a", "alpha")
	v, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if v != "alpha" {
		t.Errorf("expected alpha, got %s", v)
	}
}

func TestExpiryBoundary(t *testing.T) {
	c := New[int](time.Minute, 10)

	base := time.Now()
	clock := base
	c.now = func() time.Time { return clock }

	c.Set("k", 42)

	// Exactly at expiry the entry is still valid.
	clock = base.Add(time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Error("expected hit when now == expires_at")
	}

	// One instant past expiry it is gone.
	clock = base.Add(time.Minute + time.Nanosecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss when now > expires_at")
	}

	if c.Size() != 0 {
		t.Errorf("expected expired entry removed, size=%d", c.Size())
	}
}

func TestEvictionPrefersExpired(t *testing.T) {
	c := New[int](time.Minute, 3)

	base := time.Now()
	clock := base
	c.now = func() time.Time { return clock }

	c.Set("old", 1)
	clock = base.Add(2 * time.Minute) // "old" is now expired
	c.Set("b", 2)
	c.Set("c", 3)

	// Cache is full; "old" should be dropped as expired, not counted as an
	// age-based eviction, and the live entries should survive.
	c.Set("d", 4)

	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to survive eviction")
	}
	if _, ok := c.Get("d"); !ok {
		t.Error("expected d present after insert")
	}

	stats := c.Stats()
	if stats.Evictions != 0 {
		t.Errorf("expected 0 age evictions, got %d", stats.Evictions)
	}
}

func TestEvictionByAge(t *testing.T) {
	c := New[int](time.Hour, 3)

	base := time.Now()
	clock := base
	c.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		clock = clock.Add(time.Second)
	}

	c.Set("k3", 3)

	if _, ok := c.Get("k0"); ok {
		t.Error("expected oldest entry k0 evicted")
	}
	if c.Size() != 3 {
		t.Errorf("expected size bound 3 held, got %d", c.Size())
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("expected 1 eviction, got %d", ev)
	}
}

func TestSizeBoundHeldUnderManySets(t *testing.T) {
	c := New[int](time.Hour, 5)
	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		if c.Size() > 5 {
			t.Fatalf("size bound violated after set %d: %d", i, c.Size())
		}
	}
}

func TestStatsCounters(t *testing.T) {
	c := New[int](time.Minute, 10)

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("nope")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.TotalRequests != 3 {
		t.Errorf("expected 3 total requests, got %d", stats.TotalRequests)
	}
	if stats.HitRate < 66 || stats.HitRate > 67 {
		t.Errorf("expected hit rate ~66.7, got %f", stats.HitRate)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.TotalRequests != 0 {
		t.Error("expected counters zeroed after reset")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := New[int](time.Minute, 10)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a gone after invalidate")
	}

	c.Invalidate("never-existed") // must not panic

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("expected empty after clear, size=%d", c.Size())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute, 100)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%50)
				c.Set(key, i)
				c.Get(key)
				if i%25 == 0 {
					c.Invalidate(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Size() > 100 {
		t.Errorf("size bound violated under concurrency: %d", c.Size())
	}
}
