package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore(10)

	store.Set("k1", NewEntry([]byte("v1"), time.Minute, false))

	entry, ok := store.Get("k1")
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if string(entry.Payload) != "v1" {
		t.Errorf("payload = %q, want %q", entry.Payload, "v1")
	}
	if entry.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", entry.HitCount)
	}

	if _, ok := store.Get("absent"); ok {
		t.Error("Get() hit for a key that was never set")
	}
}

func TestMemoryStore_ExpiredEntryIsAbsent(t *testing.T) {
	store := NewMemoryStore(10)

	store.Set("k1", NewEntry([]byte("v1"), -time.Second, false))

	if _, ok := store.Get("k1"); ok {
		t.Error("Get() returned an expired entry")
	}
	if store.Len() != 0 {
		t.Errorf("expired entry still physically present, Len() = %d", store.Len())
	}
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	store := NewMemoryStore(10)

	store.Set("stale", NewEntry([]byte("v"), 10*time.Millisecond, false))
	store.Set("fresh", NewEntry([]byte("v"), time.Minute, false))
	time.Sleep(20 * time.Millisecond)

	// Any operation sweeps; a Set on an unrelated key removes the stale one.
	store.Set("other", NewEntry([]byte("v"), time.Minute, false))

	if store.Len() != 2 {
		t.Errorf("Len() = %d after sweep, want 2", store.Len())
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Error("sweep removed a live entry")
	}
}

func TestMemoryStore_LRUEviction(t *testing.T) {
	store := NewMemoryStore(3)

	store.Set("a", NewEntry([]byte("v"), time.Minute, false))
	store.Set("b", NewEntry([]byte("v"), time.Minute, false))
	store.Set("c", NewEntry([]byte("v"), time.Minute, false))

	// Fourth insert evicts the least-recently-used key, "a".
	store.Set("d", NewEntry([]byte("v"), time.Minute, false))

	if _, ok := store.Get("a"); ok {
		t.Error("LRU key survived eviction")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := store.Get(key); !ok {
			t.Errorf("key %q was evicted but was not LRU", key)
		}
	}
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
}

func TestMemoryStore_GetProtectsFromEviction(t *testing.T) {
	store := NewMemoryStore(3)

	store.Set("a", NewEntry([]byte("v"), time.Minute, false))
	store.Set("b", NewEntry([]byte("v"), time.Minute, false))
	store.Set("c", NewEntry([]byte("v"), time.Minute, false))

	// Touch "a": now "b" is the LRU victim.
	if _, ok := store.Get("a"); !ok {
		t.Fatal("Get(a) missed")
	}

	store.Set("d", NewEntry([]byte("v"), time.Minute, false))

	if _, ok := store.Get("a"); !ok {
		t.Error("recently accessed key was evicted")
	}
	if _, ok := store.Get("b"); ok {
		t.Error("LRU key survived eviction")
	}
}

func TestMemoryStore_SizeAccounting(t *testing.T) {
	store := NewMemoryStore(10)

	store.Set("a", NewEntry(make([]byte, 100), time.Minute, false))
	store.Set("b", NewEntry(make([]byte, 50), time.Minute, false))
	if got := store.SizeBytes(); got != 150 {
		t.Errorf("SizeBytes() = %d, want 150", got)
	}

	// Replacing an entry adjusts, not adds.
	store.Set("a", NewEntry(make([]byte, 30), time.Minute, false))
	if got := store.SizeBytes(); got != 80 {
		t.Errorf("SizeBytes() after replace = %d, want 80", got)
	}

	store.Delete("b")
	if got := store.SizeBytes(); got != 30 {
		t.Errorf("SizeBytes() after delete = %d, want 30", got)
	}

	store.Clear()
	if got := store.SizeBytes(); got != 0 {
		t.Errorf("SizeBytes() after clear = %d, want 0", got)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after clear = %d, want 0", store.Len())
	}
}

func TestMemoryStore_InvalidatePattern(t *testing.T) {
	store := NewMemoryStore(10)

	store.Set("ns:a:1", NewEntry([]byte("v"), time.Minute, false))
	store.Set("ns:a:2", NewEntry([]byte("v"), time.Minute, false))
	store.Set("ns:b:1", NewEntry([]byte("v"), time.Minute, false))

	removed := store.InvalidatePattern("ns:a:*")
	if removed != 2 {
		t.Errorf("InvalidatePattern() = %d, want 2", removed)
	}

	if _, ok := store.Get("ns:a:1"); ok {
		t.Error("ns:a:1 survived invalidation")
	}
	if _, ok := store.Get("ns:a:2"); ok {
		t.Error("ns:a:2 survived invalidation")
	}
	if _, ok := store.Get("ns:b:1"); !ok {
		t.Error("ns:b:1 was removed by a non-matching pattern")
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	store := NewMemoryStore(2)

	store.Set("a", NewEntry([]byte("v"), time.Minute, false))
	store.Get("a")
	store.Get("absent")
	store.Set("b", NewEntry([]byte("v"), time.Minute, false))
	store.Set("c", NewEntry([]byte("v"), time.Minute, false)) // evicts

	stats := store.Stats()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if stats.Entries != 2 || stats.MaxEntries != 2 {
		t.Errorf("Entries/MaxEntries = %d/%d, want 2/2", stats.Entries, stats.MaxEntries)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(100)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%50)
				store.Set(key, NewEntry([]byte("v"), time.Minute, false))
				store.Get(key)
				if i%10 == 0 {
					store.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if store.Len() > 100 {
		t.Errorf("Len() = %d exceeds bound 100", store.Len())
	}
}
