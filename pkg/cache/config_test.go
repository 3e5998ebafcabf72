package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("localhost:6379", "cache.internal:6379")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig does not validate: %v", err)
	}
	if cfg.Local.Addr != "localhost:6379" {
		t.Errorf("Local.Addr = %q", cfg.Local.Addr)
	}
	if cfg.Distant.Addr != "cache.internal:6379" {
		t.Errorf("Distant.Addr = %q", cfg.Distant.Addr)
	}
	if cfg.Local.OpTimeout >= cfg.Distant.OpTimeout {
		t.Error("local tier timeout should be tighter than distant tier timeout")
	}
	if !cfg.MetricsEnabled {
		t.Error("metrics should be enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config { return DefaultConfig("localhost:6379", "localhost:6380") }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty prefix", func(c *Config) { c.Prefix = "" }},
		{"zero max entries", func(c *Config) { c.Memory.MaxEntries = 0 }},
		{"negative memory ttl", func(c *Config) { c.Memory.DefaultTTL = -time.Second }},
		{"empty local addr", func(c *Config) { c.Local.Addr = "" }},
		{"empty distant addr", func(c *Config) { c.Distant.Addr = "" }},
		{"zero local ttl", func(c *Config) { c.Local.DefaultTTL = 0 }},
		{"zero op timeout", func(c *Config) { c.Distant.OpTimeout = 0 }},
		{"zero scan batch", func(c *Config) { c.Local.ScanBatchSize = 0 }},
		{"unknown algorithm", func(c *Config) { c.Compression.Algorithm = "brotli" }},
		{"negative threshold", func(c *Config) { c.Compression.Threshold = -1 }},
		{"negative max value", func(c *Config) { c.MaxValueBytes = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}

	if err := base().Validate(); err != nil {
		t.Errorf("Validate() rejected a valid config: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	content := `
prefix: venuekit
memory:
  max_entries: 500
local:
  addr: "localhost:6379"
distant:
  addr: "cache.internal:6379"
  db: 2
compression:
  enabled: true
  algorithm: lz4
metrics_enabled: false
`
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Memory.MaxEntries != 500 {
		t.Errorf("Memory.MaxEntries = %d, want 500", cfg.Memory.MaxEntries)
	}
	if cfg.Distant.DB != 2 {
		t.Errorf("Distant.DB = %d, want 2", cfg.Distant.DB)
	}
	if cfg.Compression.Algorithm != CompressionLZ4 {
		t.Errorf("Compression.Algorithm = %q, want lz4", cfg.Compression.Algorithm)
	}
	if cfg.MetricsEnabled {
		t.Error("metrics_enabled: false was not applied")
	}
	// Unset fields keep their defaults.
	if cfg.Local.OpTimeout <= 0 {
		t.Error("defaults were not applied to unset fields")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Error("LoadConfig() succeeded on a missing file")
	}
}
