package cache

import (
	"container/list"
	"path"
	"sync"
	"sync/atomic"
)

// sweepLimit bounds how many LRU-end entries a single expired-entry sweep
// examines. Keeps the mutex hold time O(entries-touched) instead of
// O(total store size); entries missed by a sweep are still removed lazily
// when accessed.
const sweepLimit = 32

// MemoryStore is the bounded in-process cache tier.
//
// Entries are held in a map plus an LRU order list (most-recently-used at
// the front). All operations are linearized by a single mutex; the composite
// sweep+evict+insert path in Set is atomic with respect to concurrent calls.
type MemoryStore struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List
	sizeBytes  int64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type memoryItem struct {
	key   string
	entry *Entry
}

// MemoryStats is a point-in-time snapshot of the memory tier.
type MemoryStats struct {
	Entries    int   `json:"entries"`
	MaxEntries int   `json:"max_entries"`
	SizeBytes  int64 `json:"size_bytes"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
}

// NewMemoryStore creates a memory store bounded to maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &MemoryStore{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Get returns the entry for key if present and not expired, bumping the key
// to the most-recently-used position and incrementing its hit count.
// An expired entry is removed and reported as a miss.
func (s *MemoryStore) Get(key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	elem, ok := s.entries[key]
	if !ok {
		s.misses.Add(1)
		missesTotal.WithLabelValues(tierMemory).Inc()
		return nil, false
	}

	item := elem.Value.(*memoryItem)
	if item.entry.IsExpired() {
		s.removeElementLocked(elem, evictReasonExpired)
		s.misses.Add(1)
		missesTotal.WithLabelValues(tierMemory).Inc()
		return nil, false
	}

	s.order.MoveToFront(elem)
	item.entry.HitCount++
	s.hits.Add(1)
	hitsTotal.WithLabelValues(tierMemory).Inc()
	return item.entry, true
}

// Set inserts or replaces the entry for key. The store is first swept for
// expired entries, then entries are evicted from the LRU end until the new
// entry fits within the maxEntries bound. The inserted key becomes MRU.
func (s *MemoryStore) Set(key string, entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	if elem, ok := s.entries[key]; ok {
		item := elem.Value.(*memoryItem)
		s.sizeBytes += int64(entry.SizeBytes) - int64(item.entry.SizeBytes)
		item.entry = entry
		s.order.MoveToFront(elem)
		s.updateGaugesLocked()
		return
	}

	for len(s.entries) >= s.maxEntries {
		tail := s.order.Back()
		if tail == nil {
			break
		}
		s.removeElementLocked(tail, evictReasonLRU)
	}

	elem := s.order.PushFront(&memoryItem{key: key, entry: entry})
	s.entries[key] = elem
	s.sizeBytes += int64(entry.SizeBytes)
	s.updateGaugesLocked()
}

// Delete removes the entry for key. Returns true if it was present.
func (s *MemoryStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		return false
	}
	item := elem.Value.(*memoryItem)
	s.order.Remove(elem)
	delete(s.entries, key)
	s.sizeBytes -= int64(item.entry.SizeBytes)
	s.updateGaugesLocked()
	return true
}

// Clear removes all entries and resets size accounting.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.order.Init()
	s.sizeBytes = 0
	s.updateGaugesLocked()
}

// InvalidatePattern removes every key matching the shell-style wildcard
// pattern and returns the number of removals. Expired entries matching the
// pattern count as removals as well.
func (s *MemoryStore) InvalidatePattern(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*list.Element
	for key, elem := range s.entries {
		if ok, err := path.Match(pattern, key); err == nil && ok {
			matched = append(matched, elem)
		}
	}

	for _, elem := range matched {
		item := elem.Value.(*memoryItem)
		s.order.Remove(elem)
		delete(s.entries, item.key)
		s.sizeBytes -= int64(item.entry.SizeBytes)
	}
	s.updateGaugesLocked()
	return len(matched)
}

// Len returns the number of physically present entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SizeBytes returns the total payload bytes of present entries.
func (s *MemoryStore) SizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeBytes
}

// Stats returns a snapshot of the store's counters and utilization.
func (s *MemoryStore) Stats() MemoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MemoryStats{
		Entries:    len(s.entries),
		MaxEntries: s.maxEntries,
		SizeBytes:  s.sizeBytes,
		Hits:       s.hits.Load(),
		Misses:     s.misses.Load(),
		Evictions:  s.evictions.Load(),
	}
}

// sweepLocked removes expired entries, examining at most sweepLimit entries
// from the LRU end of the order list. Callers must hold s.mu.
func (s *MemoryStore) sweepLocked() {
	elem := s.order.Back()
	for i := 0; elem != nil && i < sweepLimit; i++ {
		prev := elem.Prev()
		if elem.Value.(*memoryItem).entry.IsExpired() {
			s.removeElementLocked(elem, evictReasonExpired)
		}
		elem = prev
	}
}

func (s *MemoryStore) removeElementLocked(elem *list.Element, reason string) {
	item := elem.Value.(*memoryItem)
	s.order.Remove(elem)
	delete(s.entries, item.key)
	s.sizeBytes -= int64(item.entry.SizeBytes)
	if reason == evictReasonLRU {
		s.evictions.Add(1)
	}
	evictionsTotal.WithLabelValues(reason).Inc()
	s.updateGaugesLocked()
}

func (s *MemoryStore) updateGaugesLocked() {
	memoryBytes.WithLabelValues(tierMemory).Set(float64(s.sizeBytes))
	entriesGauge.WithLabelValues(tierMemory).Set(float64(len(s.entries)))
}
