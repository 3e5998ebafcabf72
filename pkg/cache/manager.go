package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuekit/tiercache/pkg/logging"
)

// Tier selects a cache layer for targeted writes.
type Tier int

const (
	// TierMemory is the bounded in-process tier.
	TierMemory Tier = 1

	// TierLocal is the fast remote Redis tier.
	TierLocal Tier = 2

	// TierDistant is the larger, slower remote Redis tier.
	TierDistant Tier = 3
)

// String returns the tier label used in logs and metrics.
func (t Tier) String() string {
	switch t {
	case TierMemory:
		return tierMemory
	case TierLocal:
		return tierLocal
	case TierDistant:
		return tierDistant
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Result is the outcome of a cache lookup. A miss is a Result with Hit
// false, never an error: remote tier failures are contained inside the
// manager (fail-open) and only show up in logs and counters.
type Result struct {
	// Hit reports whether any tier held the key.
	Hit bool

	// Tier names the tier that served the hit.
	Tier string

	// Payload is the encoded (possibly compressed) value.
	Payload []byte
}

// tierCounters are the manager-side hit/miss/error tallies for one remote
// tier, kept for Stats in addition to the Prometheus counters.
type tierCounters struct {
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// TierStats is a snapshot of one remote tier.
type TierStats struct {
	Hits   int64       `json:"hits"`
	Misses int64       `json:"misses"`
	Errors int64       `json:"errors"`
	Remote RemoteStats `json:"remote"`
}

// PromotionStats counts values copied into faster tiers after a hit.
type PromotionStats struct {
	FromLocal   int64 `json:"from_local"`
	FromDistant int64 `json:"from_distant"`
}

// Stats aggregates counters and utilization across all tiers.
type Stats struct {
	Memory     MemoryStats    `json:"memory"`
	Local      TierStats      `json:"local"`
	Distant    TierStats      `json:"distant"`
	Promotions PromotionStats `json:"promotions"`
}

// Manager orchestrates the three cache tiers: cascading lookups with
// promotion, fan-out writes, pattern invalidation, and statistics.
//
// A Manager is constructed once, initialized before use, and closed on
// shutdown. It is safe for concurrent use. There is no cross-tier
// atomicity: a promotion can race an unrelated delete for the same key,
// leaving a stale entry bounded by its TTL. Concurrent identical misses
// are not deduplicated.
type Manager struct {
	cfg     Config
	codec   *Codec
	memory  *MemoryStore
	local   *RemoteTier
	distant *RemoteTier
	logger  zerolog.Logger

	localStats   tierCounters
	distantStats tierCounters
	promotions   struct {
		fromLocal   atomic.Int64
		fromDistant atomic.Int64
	}
}

// New creates a Manager from the given configuration. The remote tier
// connections are established lazily; call Initialize to verify them.
func New(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Manager{
		cfg:     cfg,
		codec:   NewCodec(cfg.Compression, cfg.MaxValueBytes),
		memory:  NewMemoryStore(cfg.Memory.MaxEntries),
		local:   NewRemoteTier(tierLocal, cfg.Local),
		distant: NewRemoteTier(tierDistant, cfg.Distant),
		logger:  logging.NewLogger("cache"),
	}, nil
}

// Initialize verifies both remote tier connections. Unlike runtime tier
// failures, an initialization failure is fatal and propagates to startup.
func (m *Manager) Initialize(ctx context.Context) error {
	for _, tier := range []*RemoteTier{m.local, m.distant} {
		if err := tier.Ping(ctx); err != nil {
			return fmt.Errorf("initialize cache: %w", err)
		}
	}
	m.logger.Info().
		Str("local", m.cfg.Local.Addr).
		Str("distant", m.cfg.Distant.Addr).
		Int("memory_max_entries", m.cfg.Memory.MaxEntries).
		Msg("cache manager initialized")
	return nil
}

// Close releases both remote tier connection pools and clears the memory
// tier.
func (m *Manager) Close() error {
	m.memory.Clear()
	err := errors.Join(m.local.Close(), m.distant.Close())
	m.logger.Info().Msg("cache manager closed")
	return err
}

// Get looks the key up tier by tier: memory, then the local remote tier,
// then the distant one. A hit in a slower tier is promoted into all faster
// tiers before returning. Remote tier failures are logged and treated as a
// miss for that tier, so Get never fails; it only hits or misses.
func (m *Manager) Get(ctx context.Context, namespace, name string) (res Result) {
	key := m.key(namespace, name)

	start := time.Now()
	defer func() {
		if !m.cfg.MetricsEnabled {
			return
		}
		operationDuration.WithLabelValues("get", "all").Observe(time.Since(start).Seconds())
		result := "miss"
		if res.Hit {
			result = "hit"
		}
		lookupsTotal.WithLabelValues(namespace, result).Inc()
	}()

	if entry, ok := m.memory.Get(key); ok {
		return Result{Hit: true, Tier: tierMemory, Payload: entry.Payload}
	}

	if payload, ok := m.remoteGet(ctx, m.local, &m.localStats, key); ok {
		m.promoteToMemory(key, payload)
		m.promotions.fromLocal.Add(1)
		if m.cfg.MetricsEnabled {
			promotionsTotal.WithLabelValues(tierLocal, tierMemory).Inc()
		}
		return Result{Hit: true, Tier: tierLocal, Payload: payload}
	}

	if payload, ok := m.remoteGet(ctx, m.distant, &m.distantStats, key); ok {
		if err := m.local.Set(ctx, key, payload, m.cfg.Local.DefaultTTL); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("promotion to local tier failed")
		}
		m.promoteToMemory(key, payload)
		m.promotions.fromDistant.Add(1)
		if m.cfg.MetricsEnabled {
			promotionsTotal.WithLabelValues(tierDistant, tierLocal).Inc()
			promotionsTotal.WithLabelValues(tierDistant, tierMemory).Inc()
		}
		return Result{Hit: true, Tier: tierDistant, Payload: payload}
	}

	return Result{}
}

// GetInto looks the key up and decodes the payload into out. Returns false
// on a miss, and also on a corrupt payload: decode failures are logged and
// treated as absent rather than surfaced.
func (m *Manager) GetInto(ctx context.Context, namespace, name string, out any) bool {
	res := m.Get(ctx, namespace, name)
	if !res.Hit {
		return false
	}
	if err := m.codec.Decode(res.Payload, out); err != nil {
		m.logger.Warn().Err(err).
			Str("key", m.key(namespace, name)).
			Str("tier", res.Tier).
			Msg("discarding undecodable cache entry")
		return false
	}
	return true
}

// Decode decodes a payload returned by Get into out.
func (m *Manager) Decode(payload []byte, out any) error {
	return m.codec.Decode(payload, out)
}

// Set encodes the value once and writes it to every requested tier
// independently; with no tiers given it writes to all three. A failure in
// one tier does not block writes to the others. The returned error joins
// the per-tier failures; nil means every requested tier succeeded.
// Serialization failures and oversize values fail the whole call before
// anything is stored.
func (m *Manager) Set(ctx context.Context, namespace, name string, value any, ttl time.Duration, tiers ...Tier) error {
	payload, compressed, err := m.codec.Encode(value)
	if err != nil {
		return err
	}

	key := m.key(namespace, name)
	if len(tiers) == 0 {
		tiers = []Tier{TierMemory, TierLocal, TierDistant}
	}

	start := time.Now()
	defer func() {
		if m.cfg.MetricsEnabled {
			operationDuration.WithLabelValues("set", "all").Observe(time.Since(start).Seconds())
		}
	}()

	var errs []error
	for _, tier := range tiers {
		switch tier {
		case TierMemory:
			memTTL := ttl
			if memTTL <= 0 {
				memTTL = m.cfg.Memory.DefaultTTL
			}
			m.memory.Set(key, NewEntry(payload, memTTL, compressed))
		case TierLocal:
			if err := m.local.Set(ctx, key, payload, ttl); err != nil {
				m.logger.Warn().Err(err).Str("key", key).Msg("local tier write failed")
				errs = append(errs, err)
			}
		case TierDistant:
			if err := m.distant.Set(ctx, key, payload, ttl); err != nil {
				m.logger.Warn().Err(err).Str("key", key).Msg("distant tier write failed")
				errs = append(errs, err)
			}
		default:
			errs = append(errs, fmt.Errorf("unknown cache tier %d", int(tier)))
		}
	}
	return errors.Join(errs...)
}

// Delete removes the key from all three tiers. Absence in any tier is not
// an error; remote failures are joined into the returned error.
func (m *Manager) Delete(ctx context.Context, namespace, name string) error {
	key := m.key(namespace, name)
	m.memory.Delete(key)

	var errs []error
	for _, tier := range []*RemoteTier{m.local, m.distant} {
		if err := tier.Delete(ctx, key); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("remote delete failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InvalidatePattern removes every key in the namespace matching the
// shell-style wildcard glob, across all three tiers, and returns the total
// number of removals. A remote tier failure is logged and joined into the
// returned error; the count then covers only the tiers that answered.
func (m *Manager) InvalidatePattern(ctx context.Context, namespace, glob string) (int, error) {
	pattern := Pattern(m.cfg.Prefix, namespace, glob)

	total := m.memory.InvalidatePattern(pattern)

	var errs []error
	for _, tier := range []*RemoteTier{m.local, m.distant} {
		n, err := tier.DeletePattern(ctx, pattern)
		total += n
		if err != nil {
			m.logger.Warn().Err(err).
				Str("pattern", pattern).
				Msg("remote pattern invalidation incomplete")
			errs = append(errs, err)
		}
	}

	m.logger.Debug().Str("pattern", pattern).Int("removed", total).Msg("pattern invalidated")
	return total, errors.Join(errs...)
}

// Stats aggregates hit/miss/error counters, promotions, memory tier
// utilization, and remote tier telemetry.
func (m *Manager) Stats(ctx context.Context) Stats {
	return Stats{
		Memory: m.memory.Stats(),
		Local: TierStats{
			Hits:   m.localStats.hits.Load(),
			Misses: m.localStats.misses.Load(),
			Errors: m.localStats.errors.Load(),
			Remote: m.local.Stats(ctx),
		},
		Distant: TierStats{
			Hits:   m.distantStats.hits.Load(),
			Misses: m.distantStats.misses.Load(),
			Errors: m.distantStats.errors.Load(),
			Remote: m.distant.Stats(ctx),
		},
		Promotions: PromotionStats{
			FromLocal:   m.promotions.fromLocal.Load(),
			FromDistant: m.promotions.fromDistant.Load(),
		},
	}
}

// remoteGet reads one remote tier, folding both misses and failures into
// "not found". Failures are logged at warning level and counted.
func (m *Manager) remoteGet(ctx context.Context, tier *RemoteTier, counters *tierCounters, key string) ([]byte, bool) {
	payload, err := tier.Get(ctx, key)
	if err == nil {
		counters.hits.Add(1)
		return payload, true
	}
	if errors.Is(err, ErrMiss) {
		counters.misses.Add(1)
		return nil, false
	}
	counters.errors.Add(1)
	m.logger.Warn().Err(err).
		Str("tier", tier.Name()).
		Str("key", key).
		Msg("remote tier unavailable, treating as miss")
	return nil, false
}

// promoteToMemory copies a remote payload into the memory tier with the
// memory tier's default TTL. The payload stays in its encoded form; only
// the fastest tier tracks per-entry hit counts.
func (m *Manager) promoteToMemory(key string, payload []byte) {
	compressed := len(payload) > 0 && payload[0] != formatRaw
	m.memory.Set(key, NewEntry(payload, m.cfg.Memory.DefaultTTL, compressed))
}

func (m *Manager) key(namespace, name string) string {
	return Key{Prefix: m.cfg.Prefix, Namespace: namespace, Name: name}.String()
}
