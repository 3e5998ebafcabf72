package cache

import (
	"context"
	"time"
)

// Lookup describes one cacheable computation: its identity, arguments, and
// caching policy. The cache key is derived deterministically from Op and
// Args (see DeriveName), so the same computation always maps to the same
// key regardless of argument order.
type Lookup struct {
	// Namespace groups the derived key for wildcard invalidation.
	Namespace string

	// Op names the computation (e.g. "event_list").
	Op string

	// Args are the bound argument values of the computation.
	Args map[string]any

	// TTL is the entry lifetime; zero uses each tier's default.
	TTL time.Duration

	// Tiers restricts which tiers the computed result is written to.
	// Empty means all three.
	Tiers []Tier
}

// GetOrCompute consults the cache for the lookup's derived key and returns
// the cached value on a hit. On a miss it runs compute exactly once, stores
// the result, and returns it. A failed store does not fail the call: the
// computed value is still returned and the write failure is logged.
//
// Concurrent identical misses are not deduplicated; both callers compute
// and both write. The last write wins, which is acceptable because compute
// is expected to be deterministic for a given Lookup.
func GetOrCompute[T any](ctx context.Context, m *Manager, l Lookup, compute func(context.Context) (T, error)) (T, error) {
	name := DeriveName(l.Op, l.Args)

	var cached T
	if m.GetInto(ctx, l.Namespace, name, &cached) {
		return cached, nil
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := m.Set(ctx, l.Namespace, name, value, l.TTL, l.Tiers...); err != nil {
		m.logger.Warn().Err(err).
			Str("namespace", l.Namespace).
			Str("op", l.Op).
			Msg("caching computed value failed")
	}
	return value, nil
}
