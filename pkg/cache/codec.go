package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm used for payloads above the threshold.
type Compression string

const (
	// CompressionZstd balances ratio and speed; the default.
	CompressionZstd Compression = "zstd"

	// CompressionLZ4 favors speed over ratio; suited for hot keys.
	CompressionLZ4 Compression = "lz4"
)

// Payload format tag, first byte of every encoded payload. Decode relies on
// the tag alone, so payloads written with one configuration remain readable
// under another.
const (
	formatRaw  byte = 0
	formatZstd byte = 1
	formatLZ4  byte = 2
)

var (
	// ErrValueTooLarge is returned when a value's serialized form exceeds
	// the configured maximum and is rejected rather than truncated.
	ErrValueTooLarge = errors.New("value exceeds maximum cacheable size")

	// ErrCorruptPayload indicates a payload that cannot be decoded.
	ErrCorruptPayload = errors.New("corrupt cache payload")
)

// zstd encoder/decoder pools; EncodeAll/DecodeAll are cheap once the
// coder exists, constructing one per call is not.
var (
	zstdEncoders sync.Pool
	zstdDecoders sync.Pool
)

func getZstdEncoder(level int) *zstd.Encoder {
	if v := zstdEncoders.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoders.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Codec serializes values to tagged byte payloads, compressing conditionally.
//
// A value is JSON-serialized first. If compression is enabled and the
// serialized form exceeds the threshold, the payload is compressed; the
// compressed form is kept only when it is actually smaller, otherwise the
// raw bytes are stored. Decode inverts exactly in all cases.
type Codec struct {
	algorithm Compression
	level     int
	enabled   bool
	threshold int
	maxValue  int
}

// NewCodec creates a codec from the compression section of a Config.
func NewCodec(cfg CompressionConfig, maxValueBytes int) *Codec {
	return &Codec{
		algorithm: cfg.Algorithm,
		level:     cfg.Level,
		enabled:   cfg.Enabled,
		threshold: cfg.Threshold,
		maxValue:  maxValueBytes,
	}
}

// Encode serializes v and conditionally compresses the result.
// The returned bool reports whether compression was applied.
func (c *Codec) Encode(v any) ([]byte, bool, error) {
	serialized, err := json.Marshal(v)
	if err != nil {
		return nil, false, fmt.Errorf("marshal value: %w", err)
	}

	if c.maxValue > 0 && len(serialized) > c.maxValue {
		return nil, false, fmt.Errorf("%w: %d bytes (max %d)", ErrValueTooLarge, len(serialized), c.maxValue)
	}

	if !c.enabled || len(serialized) <= c.threshold {
		return tag(formatRaw, serialized), false, nil
	}

	var compressed []byte
	var format byte
	switch c.algorithm {
	case CompressionLZ4:
		compressed, err = compressLZ4(serialized)
		format = formatLZ4
	default:
		compressed = compressZstd(serialized, c.level)
		format = formatZstd
	}
	if err != nil {
		return nil, false, fmt.Errorf("compress value: %w", err)
	}

	// Keep the raw form when compression does not pay off.
	if compressed == nil || len(compressed) >= len(serialized) {
		return tag(formatRaw, serialized), false, nil
	}
	return tag(format, compressed), true, nil
}

// Decode reverses Encode, unmarshaling the payload into out.
func (c *Codec) Decode(data []byte, out any) error {
	serialized, err := c.decompress(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(serialized, out); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return nil
}

// decompress strips the format tag and undoes compression if present.
func (c *Codec) decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorruptPayload)
	}

	body := data[1:]
	switch data[0] {
	case formatRaw:
		return body, nil

	case formatZstd:
		dec := getZstdDecoder()
		defer zstdDecoders.Put(dec)
		serialized, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptPayload, err)
		}
		return serialized, nil

	case formatLZ4:
		if len(body) < 4 {
			return nil, fmt.Errorf("%w: short lz4 frame", ErrCorruptPayload)
		}
		size := int(body[0]) | int(body[1])<<8 | int(body[2])<<16 | int(body[3])<<24
		if size < 0 || size > maxLZ4Frame {
			return nil, fmt.Errorf("%w: implausible lz4 size %d", ErrCorruptPayload, size)
		}
		serialized := make([]byte, size)
		n, err := lz4.UncompressBlock(body[4:], serialized)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptPayload, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: lz4 size mismatch", ErrCorruptPayload)
		}
		return serialized, nil

	default:
		return nil, fmt.Errorf("%w: unknown format tag %d", ErrCorruptPayload, data[0])
	}
}

// maxLZ4Frame caps the decoded size accepted from an LZ4 frame header.
const maxLZ4Frame = 1 << 30

func tag(format byte, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = format
	copy(out[1:], body)
	return out
}

func compressZstd(data []byte, level int) []byte {
	enc := getZstdEncoder(level)
	defer zstdEncoders.Put(enc)
	return enc.EncodeAll(data, nil)
}

// compressLZ4 compresses via LZ4 block encoding, prefixing the uncompressed
// size (little-endian uint32) needed by UncompressBlock. Returns nil for
// incompressible input.
func compressLZ4(data []byte) ([]byte, error) {
	buf := make([]byte, 4+lz4.CompressBlockBound(len(data)))
	buf[0] = byte(len(data))
	buf[1] = byte(len(data) >> 8)
	buf[2] = byte(len(data) >> 16)
	buf[3] = byte(len(data) >> 24)

	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(data, buf[4:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return buf[:4+n], nil
}
