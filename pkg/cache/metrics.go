package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tier label values used across all cache metrics.
const (
	tierMemory  = "memory"
	tierLocal   = "local"
	tierDistant = "distant"
)

// Eviction reasons.
const (
	evictReasonLRU     = "lru"
	evictReasonExpired = "expired"
)

var (
	// hitsTotal tracks cache hits by tier.
	hitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiercache_hits_total",
			Help: "Total number of cache hits by tier",
		},
		[]string{"tier"},
	)

	// missesTotal tracks cache misses by tier.
	missesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiercache_misses_total",
			Help: "Total number of cache misses by tier",
		},
		[]string{"tier"},
	)

	// lookupsTotal tracks manager-level lookups by namespace and outcome.
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiercache_lookups_total",
			Help: "Total number of cache lookups by namespace and result",
		},
		[]string{"namespace", "result"},
	)

	// promotionsTotal tracks values copied into faster tiers after a hit.
	promotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiercache_promotions_total",
			Help: "Total number of promotions between tiers",
		},
		[]string{"from", "to"},
	)

	// evictionsTotal tracks memory-tier removals by reason.
	evictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiercache_evictions_total",
			Help: "Total number of memory tier evictions by reason",
		},
		[]string{"reason"},
	)

	// errorsTotal tracks tier operation errors.
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiercache_errors_total",
			Help: "Total number of cache operation errors by tier and operation",
		},
		[]string{"tier", "operation"},
	)

	// operationDuration tracks operation latency by operation and tier.
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tiercache_operation_duration_seconds",
			Help:    "Cache operation duration in seconds by operation and tier",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "tier"},
	)

	// memoryBytes tracks cache memory usage by tier.
	memoryBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tiercache_memory_bytes",
			Help: "Current cache memory usage in bytes by tier",
		},
		[]string{"tier"},
	)

	// entriesGauge tracks the number of live entries by tier.
	entriesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tiercache_entries",
			Help: "Current number of cache entries by tier",
		},
		[]string{"tier"},
	)
)
