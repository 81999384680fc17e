package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (tc *testClock) Now() time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.now
}

func (tc *testClock) Advance(d time.Duration) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.now = tc.now.Add(d)
}

func TestCache_TTLExpiry(t *testing.T) {
	clk := newTestClock()
	c := New[string, int](10, 60*time.Second, WithClock[string, int](clk.Now))

	c.Set("k", 42)

	clk.Advance(59 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("Get at t=59s: got (%d, %v), want (42, true)", v, ok)
	}

	clk.Advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("Get at t=61s: entry should have expired")
	}

	// Expired entry is removed on read.
	if n := c.Len(); n != 0 {
		t.Fatalf("Len after lazy expiry: got %d, want 0", n)
	}
}

func TestCache_SetRefreshesTTL(t *testing.T) {
	clk := newTestClock()
	c := New[string, string](10, 60*time.Second, WithClock[string, string](clk.Now))

	c.Set("k", "old")
	clk.Advance(50 * time.Second)
	c.Set("k", "new")
	clk.Advance(50 * time.Second)

	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("Get after refresh: got (%q, %v), want (\"new\", true)", v, ok)
	}
}

func TestCache_CapacityEvictsLRU(t *testing.T) {
	c := New[string, int](3, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("Get(a) before eviction: missing")
	}

	c.Set("d", 4)

	if n := c.Len(); n != 3 {
		t.Fatalf("Len after eviction: got %d, want 3", n)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("LRU entry b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("entry %q should have survived eviction", k)
		}
	}
}

func TestCache_EvictionPrefersExpired(t *testing.T) {
	clk := newTestClock()
	c := New[string, int](2, 10*time.Second, WithClock[string, int](clk.Now))

	c.Set("stale", 1)
	clk.Advance(11 * time.Second)
	c.Set("fresh", 2)

	// Inserting at capacity drops the expired entry, not the live one.
	c.Set("newer", 3)

	if _, ok := c.Get("fresh"); !ok {
		t.Fatalf("live entry evicted while an expired entry existed")
	}
	if _, ok := c.Get("newer"); !ok {
		t.Fatalf("inserted entry missing")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[string, int](10, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("deleted entry still present")
	}
	c.Delete("missing") // no-op

	c.Clear()
	if n := c.Len(); n != 0 {
		t.Fatalf("Len after Clear: got %d, want 0", n)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[string, int](64, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%32)
				c.Set(key, g*1000+i)
				c.Get(key)
				if i%50 == 0 {
					c.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if n := c.Len(); n > 64 {
		t.Fatalf("Len exceeds capacity after concurrent writes: %d", n)
	}
}
