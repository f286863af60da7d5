package cache

import (
	"fmt"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Codec identifies the compression applied to stored position bytes.
// Every entry carries its own codec tag, so the configured codec can
// change without invalidating existing entries.
type Codec string

const (
	CodecNone Codec = "none"
	CodecS2   Codec = "s2"
	CodecZstd Codec = "zstd"
)

// ParseCodec validates a codec name from configuration.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case CodecNone, CodecS2, CodecZstd:
		return Codec(name), nil
	}
	return "", fmt.Errorf("cache: unknown codec %q", name)
}

// compressor owns the reusable zstd state. s2 and the identity codec are
// stateless.
type compressor struct {
	zenc *zstd.Encoder
	zdec *zstd.Decoder
}

func newCompressor(level int) (*compressor, error) {
	encLevel := zstd.SpeedDefault
	if level > 0 {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	zenc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("cache: zstd encoder: %w", err)
	}
	zdec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("cache: zstd decoder: %w", err)
	}
	return &compressor{zenc: zenc, zdec: zdec}, nil
}

func (c *compressor) compress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecS2:
		return s2.Encode(nil, data), nil
	case CodecZstd:
		return c.zenc.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("cache: unknown codec %q", codec)
}

func (c *compressor) decompress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecS2:
		out, err := s2.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("cache: s2 decode: %w", err)
		}
		return out, nil
	case CodecZstd:
		out, err := c.zdec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("cache: zstd decode: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cache: unknown codec %q", codec)
}

func (c *compressor) close() {
	c.zenc.Close()
	c.zdec.Close()
}
