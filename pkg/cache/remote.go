package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss indicates the requested key was not found in a tier.
var ErrMiss = errors.New("cache miss")

// TierError wraps a failure talking to a remote tier. The manager contains
// these at the tier boundary: a TierError on the read path degrades to a
// miss and is never surfaced to callers of Get.
type TierError struct {
	Tier string
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *TierError) Error() string {
	return fmt.Sprintf("cache tier %s: %s: %v", e.Tier, e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TierError) Unwrap() error {
	return e.Err
}

// RemoteTier is a thin adapter over one Redis-backed cache tier.
//
// Every operation runs under a bounded timeout; a timeout is reported like
// any other network failure so the manager never blocks on a slow tier.
// The adapter is safe for concurrent use: all shared state lives in the
// go-redis connection pool.
type RemoteTier struct {
	name       string
	client     *redis.Client
	defaultTTL time.Duration
	opTimeout  time.Duration
	scanBatch  int64
}

// RemoteStats carries a remote tier's own telemetry where reachable.
type RemoteStats struct {
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
	Errors     int64  `json:"errors"`
	UsedMemory string `json:"used_memory"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

// NewRemoteTier creates an adapter for the named tier.
func NewRemoteTier(name string, cfg RemoteConfig) *RemoteTier {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
		PoolSize: cfg.PoolSize,
	})
	return &RemoteTier{
		name:       name,
		client:     client,
		defaultTTL: cfg.DefaultTTL,
		opTimeout:  cfg.OpTimeout,
		scanBatch:  cfg.ScanBatchSize,
	}
}

// Name returns the tier label ("local" or "distant").
func (t *RemoteTier) Name() string {
	return t.name
}

// DefaultTTL returns the tier's default entry lifetime.
func (t *RemoteTier) DefaultTTL() time.Duration {
	return t.defaultTTL
}

// Ping verifies the connection. Used during manager initialization, where
// a failure is fatal rather than fail-open.
func (t *RemoteTier) Ping(ctx context.Context) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	if err := t.client.Ping(ctx).Err(); err != nil {
		return &TierError{Tier: t.name, Op: "ping", Err: err}
	}
	return nil
}

// Get returns the payload stored under key, or ErrMiss if absent.
func (t *RemoteTier) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	start := time.Now()
	data, err := t.client.Get(ctx, key).Bytes()
	operationDuration.WithLabelValues("get", t.name).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, redis.Nil) {
			missesTotal.WithLabelValues(t.name).Inc()
			return nil, ErrMiss
		}
		errorsTotal.WithLabelValues(t.name, "get").Inc()
		return nil, &TierError{Tier: t.name, Op: "get", Err: err}
	}

	hitsTotal.WithLabelValues(t.name).Inc()
	return data, nil
}

// Set stores payload under key with the given TTL (SETEX semantics).
// A non-positive ttl falls back to the tier default.
func (t *RemoteTier) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = t.defaultTTL
	}

	ctx, cancel := t.bound(ctx)
	defer cancel()

	start := time.Now()
	err := t.client.Set(ctx, key, payload, ttl).Err()
	operationDuration.WithLabelValues("set", t.name).Observe(time.Since(start).Seconds())

	if err != nil {
		errorsTotal.WithLabelValues(t.name, "set").Inc()
		return &TierError{Tier: t.name, Op: "set", Err: err}
	}
	return nil
}

// Delete removes the given keys. Absent keys are not an error.
func (t *RemoteTier) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := t.bound(ctx)
	defer cancel()

	if err := t.client.Del(ctx, keys...).Err(); err != nil {
		errorsTotal.WithLabelValues(t.name, "delete").Inc()
		return &TierError{Tier: t.name, Op: "delete", Err: err}
	}
	return nil
}

// DeletePattern removes all keys matching the wildcard pattern using
// cursor-based SCAN in batches, deleting each batch as it is found.
// Returns the number of keys deleted.
func (t *RemoteTier) DeletePattern(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	var cursor uint64

	for {
		keys, next, err := t.scanPage(ctx, cursor, pattern)
		if err != nil {
			return deleted, err
		}

		if len(keys) > 0 {
			if err := t.Delete(ctx, keys...); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// scanPage fetches one SCAN page under the per-op timeout.
func (t *RemoteTier) scanPage(ctx context.Context, cursor uint64, pattern string) ([]string, uint64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	keys, next, err := t.client.Scan(ctx, cursor, pattern, t.scanBatch).Result()
	if err != nil {
		errorsTotal.WithLabelValues(t.name, "scan").Inc()
		return nil, 0, &TierError{Tier: t.name, Op: "scan", Err: err}
	}
	return keys, next, nil
}

// Stats queries the tier's own memory telemetry (INFO memory) and the
// connection pool state. INFO failures leave UsedMemory empty rather than
// failing the whole stats call.
func (t *RemoteTier) Stats(ctx context.Context) RemoteStats {
	stats := RemoteStats{}

	pool := t.client.PoolStats()
	stats.TotalConns = pool.TotalConns
	stats.IdleConns = pool.IdleConns

	ctx, cancel := t.bound(ctx)
	defer cancel()

	info, err := t.client.Info(ctx, "memory").Result()
	if err == nil {
		stats.UsedMemory = parseInfoField(info, "used_memory_human")
		if raw := parseInfoField(info, "used_memory"); raw != "" {
			if used, err := strconv.ParseInt(raw, 10, 64); err == nil {
				memoryBytes.WithLabelValues(t.name).Set(float64(used))
			}
		}
	}
	return stats
}

// Close releases the underlying connection pool.
func (t *RemoteTier) Close() error {
	return t.client.Close()
}

// bound derives a context bounded by the tier's per-operation timeout.
func (t *RemoteTier) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.opTimeout)
}

// parseInfoField extracts a single "field:value" line from INFO output.
func parseInfoField(info, field string) string {
	for _, line := range strings.Split(info, "\n") {
		if value, ok := strings.CutPrefix(line, field+":"); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
