package cache

import (
	"time"
)

// Entry represents a single cached value as stored in a tier.
type Entry struct {
	// Payload is the encoded value, possibly compressed.
	Payload []byte `json:"payload"`

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the entry becomes stale. An expired entry is
	// logically absent even while still physically present.
	ExpiresAt time.Time `json:"expires_at"`

	// HitCount is incremented on each successful read.
	HitCount int64 `json:"hit_count"`

	// SizeBytes is the payload length after optional compression.
	SizeBytes int `json:"size_bytes"`

	// Compressed reports whether Payload carries a compressed frame.
	Compressed bool `json:"compressed"`
}

// NewEntry creates an entry expiring ttl from now.
func NewEntry(payload []byte, ttl time.Duration, compressed bool) *Entry {
	now := time.Now()
	return &Entry{
		Payload:    payload,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		SizeBytes:  len(payload),
		Compressed: compressed,
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
