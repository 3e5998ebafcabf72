// Package cache implements the multi-tier caching runtime of the venuekit
// backend: a bounded in-process memory tier backed by two Redis tiers of
// increasing capacity and latency.
//
// The manager cascades lookups through the tiers and promotes hits from
// slower tiers into faster ones:
//
//   - memory: bounded map with LRU eviction and lazy TTL expiry
//   - local: fast remote Redis (same host or rack)
//   - distant: larger remote Redis (shared, cross-zone)
//
// # Basic Usage
//
//	cfg := cache.DefaultConfig("localhost:6379", "cache.internal:6379")
//	manager, err := cache.New(cfg)
//	if err != nil {
//		return err
//	}
//	if err := manager.Initialize(ctx); err != nil {
//		return err
//	}
//	defer manager.Close()
//
//	// Write-through to all tiers.
//	err = manager.Set(ctx, "events", "event:42", event, 5*time.Minute)
//
//	// Read back; misses are a Result with Hit == false, never an error.
//	var cached Event
//	if manager.GetInto(ctx, "events", "event:42", &cached) {
//		// hit
//	}
//
// # Lookup-or-Compute
//
//	event, err := cache.GetOrCompute(ctx, manager, cache.Lookup{
//		Namespace: "events",
//		Op:        "event_detail",
//		Args:      map[string]any{"id": 42},
//		TTL:       5 * time.Minute,
//	}, func(ctx context.Context) (Event, error) {
//		return store.LoadEvent(ctx, 42)
//	})
//
// # Failure Model
//
// The cache is fail-open: a network error or timeout talking to a remote
// tier is logged, counted, and treated as a miss for that tier. Callers of
// Get never observe a tier failure. Only Initialize propagates connection
// errors, and only Set surfaces serialization or oversize failures.
//
// # Consistency
//
// There is no cross-tier atomicity. A promotion racing an unrelated delete
// can leave a stale entry in a faster tier; every entry carries a TTL, so
// staleness is bounded. Concurrent identical misses are not deduplicated:
// both callers compute and both write.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - tiercache_hits_total{tier} / tiercache_misses_total{tier}
//   - tiercache_lookups_total{namespace,result}
//   - tiercache_promotions_total{from,to}
//   - tiercache_evictions_total{reason} ("lru", "expired")
//   - tiercache_errors_total{tier,operation}
//   - tiercache_operation_duration_seconds{operation,tier}
//   - tiercache_memory_bytes{tier} / tiercache_entries{tier}
//
// Emission is controlled by Config.MetricsEnabled (on by default); the
// counters reported by Manager.Stats are kept either way.
package cache
