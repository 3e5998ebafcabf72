package cache

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the full cache configuration. It is immutable once passed to
// New; every recognized option is enumerated here rather than read from an
// open-ended map.
type Config struct {
	// Prefix is prepended to every key ("<prefix>:<namespace>:<name>").
	Prefix string `yaml:"prefix"`

	// Memory configures the in-process tier.
	Memory MemoryConfig `yaml:"memory"`

	// Local configures the fast remote tier (tier 2).
	Local RemoteConfig `yaml:"local"`

	// Distant configures the larger, slower remote tier (tier 3).
	Distant RemoteConfig `yaml:"distant"`

	// Compression configures the payload codec.
	Compression CompressionConfig `yaml:"compression"`

	// MaxValueBytes rejects values whose serialized form exceeds this size.
	// Zero disables the limit.
	MaxValueBytes int `yaml:"max_value_bytes"`

	// MetricsEnabled turns Prometheus metric emission on. The counters
	// reported by Stats are kept either way.
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// MemoryConfig configures the bounded in-process tier.
type MemoryConfig struct {
	// MaxEntries bounds the number of entries held in memory.
	MaxEntries int `yaml:"max_entries"`

	// DefaultTTL applies to entries promoted into this tier and to Set
	// calls without an explicit TTL.
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// RemoteConfig configures one Redis-backed tier.
type RemoteConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string `yaml:"addr"`

	// DB is the Redis database index.
	DB int `yaml:"db"`

	// Password authenticates the connection if non-empty.
	Password string `yaml:"password"`

	// PoolSize is the maximum number of pooled connections.
	PoolSize int `yaml:"pool_size"`

	// DefaultTTL applies to entries written to this tier without an
	// explicit TTL, including promotions.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// OpTimeout bounds every single Redis operation. On timeout the
	// operation is treated like any other tier failure.
	OpTimeout time.Duration `yaml:"op_timeout"`

	// ScanBatchSize is the COUNT hint per SCAN page during pattern
	// invalidation.
	ScanBatchSize int64 `yaml:"scan_batch_size"`
}

// CompressionConfig configures the payload codec.
type CompressionConfig struct {
	// Enabled turns conditional compression on.
	Enabled bool `yaml:"enabled"`

	// Algorithm selects zstd (default) or lz4.
	Algorithm Compression `yaml:"algorithm"`

	// Level is the zstd compression level (1-22, zstd scale).
	Level int `yaml:"level"`

	// Threshold is the serialized size in bytes above which compression
	// is attempted.
	Threshold int `yaml:"threshold"`
}

// DefaultConfig returns a configuration with production defaults for the
// given tier addresses.
func DefaultConfig(localAddr, distantAddr string) Config {
	return Config{
		Prefix: "venuekit",
		Memory: MemoryConfig{
			MaxEntries: 10000,
			DefaultTTL: 5 * time.Minute,
		},
		Local: RemoteConfig{
			Addr:          localAddr,
			DB:            0,
			PoolSize:      10,
			DefaultTTL:    30 * time.Minute,
			OpTimeout:     250 * time.Millisecond,
			ScanBatchSize: 100,
		},
		Distant: RemoteConfig{
			Addr:          distantAddr,
			DB:            0,
			PoolSize:      10,
			DefaultTTL:    6 * time.Hour,
			OpTimeout:     time.Second,
			ScanBatchSize: 500,
		},
		Compression: CompressionConfig{
			Enabled:   true,
			Algorithm: CompressionZstd,
			Level:     3,
			Threshold: 1024,
		},
		MaxValueBytes:  8 << 20,
		MetricsEnabled: true,
	}
}

// LoadConfig reads a YAML configuration file, applying defaults for unset
// sections.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig("", "")

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent or
// unusable values.
func (c Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("config: prefix must not be empty")
	}
	if c.Memory.MaxEntries <= 0 {
		return fmt.Errorf("config: memory.max_entries must be positive")
	}
	if c.Memory.DefaultTTL <= 0 {
		return fmt.Errorf("config: memory.default_ttl must be positive")
	}
	for _, tier := range []struct {
		name string
		cfg  RemoteConfig
	}{{"local", c.Local}, {"distant", c.Distant}} {
		if tier.cfg.Addr == "" {
			return fmt.Errorf("config: %s.addr must not be empty", tier.name)
		}
		if tier.cfg.DefaultTTL <= 0 {
			return fmt.Errorf("config: %s.default_ttl must be positive", tier.name)
		}
		if tier.cfg.OpTimeout <= 0 {
			return fmt.Errorf("config: %s.op_timeout must be positive", tier.name)
		}
		if tier.cfg.ScanBatchSize <= 0 {
			return fmt.Errorf("config: %s.scan_batch_size must be positive", tier.name)
		}
	}
	switch c.Compression.Algorithm {
	case CompressionZstd, CompressionLZ4, "":
	default:
		return fmt.Errorf("config: unknown compression algorithm %q", c.Compression.Algorithm)
	}
	if c.Compression.Threshold < 0 {
		return fmt.Errorf("config: compression.threshold must not be negative")
	}
	if c.MaxValueBytes < 0 {
		return fmt.Errorf("config: max_value_bytes must not be negative")
	}
	return nil
}
