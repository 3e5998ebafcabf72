// Package testutil provides miniredis-backed helpers for cache unit tests.
package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/venuekit/tiercache/pkg/cache"
)

// TierAddr starts an in-process miniredis server and returns its address.
// The server is shut down via t.Cleanup.
func TierAddr(t *testing.T) (*miniredis.Miniredis, string) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, mr.Addr()
}

// BrokenAddr returns an address whose server has already been shut down,
// for exercising fail-open behavior on remote tier errors.
func BrokenAddr(t *testing.T) string {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()
	return addr
}

// TestConfig returns a cache configuration wired to the given tier
// addresses with short, test-friendly TTLs and a low compression threshold.
func TestConfig(localAddr, distantAddr string) cache.Config {
	cfg := cache.DefaultConfig(localAddr, distantAddr)
	cfg.Prefix = "test"
	cfg.Memory.MaxEntries = 64
	cfg.Memory.DefaultTTL = time.Minute
	cfg.Local.DefaultTTL = time.Minute
	cfg.Distant.DefaultTTL = time.Minute
	cfg.Compression.Threshold = 64
	return cfg
}
