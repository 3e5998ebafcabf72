package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Key identifies a cached value across all tiers.
// The rendered form is "<prefix>:<namespace>:<name>" and is stable, so the
// same key addresses the same value in the memory tier and both Redis tiers.
type Key struct {
	// Prefix is the application-wide key prefix (e.g. "venuekit").
	Prefix string

	// Namespace groups related keys for wildcard invalidation
	// (e.g. "events", "tickets").
	Namespace string

	// Name is the logical key within the namespace.
	Name string
}

// String renders the full cache key.
//
// Example:
//
//	venuekit:events:event:42
func (k Key) String() string {
	return k.Prefix + ":" + k.Namespace + ":" + k.Name
}

// Pattern renders a wildcard match pattern scoped to a namespace.
// The glob uses shell-style "*" wildcards and is passed verbatim to both
// the in-memory matcher and the Redis SCAN MATCH primitive.
func Pattern(prefix, namespace, glob string) string {
	return prefix + ":" + namespace + ":" + glob
}

// DeriveName builds a deterministic logical key name from an operation name
// and its bound arguments. Argument order does not matter: args are hashed
// as sorted name/value pairs to a fixed-length fragment, so the same call
// always maps to the same cache key. Every name and value is length-prefixed
// before hashing, so no argument value can mimic a pair boundary and collide
// with a different argument set.
//
// Example:
//
//	DeriveName("event_list", map[string]any{"venue": 7, "day": "2026-06-01"})
//	// -> "event_list:9f2c41a86d03b517"
func DeriveName(op string, args map[string]any) string {
	if len(args) == 0 {
		return op
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		value := fmt.Sprintf("%v", args[name])
		fmt.Fprintf(h, "%d:%s=%d:%s&", len(name), name, len(value), value)
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil)[:8])
}
