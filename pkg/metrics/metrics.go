// Package metrics provides the centralized Prometheus metrics reference for
// the cache runtime. All metrics are defined next to the code that emits
// them (pkg/cache) to avoid circular dependencies; this package documents
// the full surface and exposes the shared registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the cache runtime.
// All metrics are automatically registered via promauto in pkg/cache.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - tiercache_hits_total{tier} (Counter): Cache hits by tier (memory, local, distant)
//   - tiercache_misses_total{tier} (Counter): Cache misses by tier
//   - tiercache_lookups_total{namespace, result} (Counter): Manager lookups by namespace and outcome
//   - tiercache_promotions_total{from, to} (Counter): Values copied into faster tiers after a hit
//   - tiercache_evictions_total{reason} (Counter): Memory tier removals by reason (lru, expired)
//   - tiercache_errors_total{tier, operation} (Counter): Tier operation errors
//   - tiercache_operation_duration_seconds{operation, tier} (Histogram): Operation latency
//   - tiercache_memory_bytes{tier} (Gauge): Cache memory usage in bytes
//   - tiercache_entries{tier} (Gauge): Live entries by tier
//
// Manager-level emission is gated by cache.Config.MetricsEnabled (on by
// default).
//
// Example Prometheus Queries:
//
//   # Overall hit rate
//   sum(rate(tiercache_hits_total[5m])) /
//   (sum(rate(tiercache_hits_total[5m])) + sum(rate(tiercache_misses_total{tier="distant"}[5m])))
//
//   # Memory tier hit rate
//   rate(tiercache_hits_total{tier="memory"}[5m]) /
//   (rate(tiercache_hits_total{tier="memory"}[5m]) + rate(tiercache_misses_total{tier="memory"}[5m]))
//
//   # Eviction pressure
//   rate(tiercache_evictions_total{reason="lru"}[5m])
//
//   # P95 remote tier latency
//   histogram_quantile(0.95, rate(tiercache_operation_duration_seconds_bucket{tier="distant"}[5m]))
//
//   # Fail-open events (remote tiers degraded to miss)
//   rate(tiercache_errors_total[5m])
