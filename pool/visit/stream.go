package visit

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	// Version is the stream format version written by Encode.
	Version uint8 = 1

	magic        = "GPOL"
	flagChecksum = 1 << 0
)

// Compression selects the codec applied to the stream body.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Option configures Encode and Decode.
type Option func(*options)

type options struct {
	compression Compression
	checksum    bool
	registry    *Registry
	maxLength   uint32
}

func defaultOptions() options {
	return options{
		compression: CompressionNone,
		checksum:    true,
		maxLength:   DefaultMaxLength,
	}
}

// WithCompression selects the body compression used by Encode. Decode reads it from the header.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithChecksum toggles the CRC32 trailer written by Encode.
func WithChecksum(enabled bool) Option {
	return func(o *options) {
		o.checksum = enabled
	}
}

// WithRegistry attaches a type registry to the visitor handed to the visit function.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithMaxLength bounds length prefixes accepted while decoding.
func WithMaxLength(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLength = n
		}
	}
}

// Encode runs fn against a writing visitor and frames the result:
//
//	magic "GPOL" | version u8 | compression u8 | flags u8 | body length u64 | body | crc32 u32
//
// The checksum covers the uncompressed body.
func Encode(w io.Writer, fn func(*Visitor), opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var body bytes.Buffer
	comp, err := newCompressor(&body, o.compression)
	if err != nil {
		return err
	}
	sum := crc32.NewIEEE()
	v := NewWriter(io.MultiWriter(comp, sum))
	v.registry = o.registry
	fn(v)
	if err := v.Err(); err != nil {
		return err
	}
	if err := comp.Close(); err != nil {
		return fmt.Errorf("visit: close %s compressor: %w", o.compression, err)
	}

	var flags uint8
	if o.checksum {
		flags |= flagChecksum
	}
	version := Version
	compression := uint8(o.compression)
	length := uint64(body.Len())

	out := NewWriter(w)
	out.write([]byte(magic))
	out.Uint8(&version)
	out.Uint8(&compression)
	out.Uint8(&flags)
	out.Uint64(&length)
	out.write(body.Bytes())
	if o.checksum {
		crc := sum.Sum32()
		out.Uint32(&crc)
	}
	return out.Err()
}

// Decode reads a stream produced by Encode and runs fn against a reading visitor
// positioned at the start of the body. fn must consume the whole body: leftover
// bytes fail with ErrTrailingData.
func Decode(r io.Reader, fn func(*Visitor), opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	in := NewReader(r)
	var m [len(magic)]byte
	if !in.read(m[:]) {
		return fmt.Errorf("visit: read header: %w", in.Err())
	}
	if string(m[:]) != magic {
		return fmt.Errorf("%w: %q", ErrInvalidMagic, m[:])
	}
	var version, compression, flags uint8
	var length uint64
	in.Uint8(&version)
	in.Uint8(&compression)
	in.Uint8(&flags)
	in.Uint64(&length)
	if err := in.Err(); err != nil {
		return fmt.Errorf("visit: read header: %w", err)
	}
	if version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if length > math.MaxInt64 {
		return fmt.Errorf("%w: body length %d", ErrLengthTooLarge, length)
	}

	limited := &io.LimitedReader{R: r, N: int64(length)}
	dec, release, err := newDecompressor(limited, Compression(compression))
	if err != nil {
		return err
	}
	sum := crc32.NewIEEE()
	v := NewReader(io.TeeReader(dec, sum))
	v.registry = o.registry
	v.maxLength = o.maxLength
	defer release()
	fn(v)
	if err := v.Err(); err != nil {
		return err
	}
	if err := expectEnd(dec); err != nil {
		return err
	}
	if Compression(compression) == CompressionNone && limited.N != 0 {
		return fmt.Errorf("visit: body truncated by %d bytes: %w", limited.N, io.ErrUnexpectedEOF)
	}

	if flags&flagChecksum == 0 {
		return nil
	}
	if _, err := io.Copy(io.Discard, limited); err != nil {
		return fmt.Errorf("visit: skip body: %w", err)
	}
	var want uint32
	in.Uint32(&want)
	if err := in.Err(); err != nil {
		return fmt.Errorf("visit: read checksum: %w", err)
	}
	if got := sum.Sum32(); got != want {
		return fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrChecksumMismatch, got, want)
	}
	return nil
}

// expectEnd fails unless r is exhausted.
func expectEnd(r io.Reader) error {
	var one [1]byte
	n, err := io.ReadFull(r, one[:])
	switch {
	case n > 0:
		return ErrTrailingData
	case err == io.EOF:
		return nil
	default:
		return fmt.Errorf("visit: read body end: %w", err)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("visit: zstd writer: %w", err)
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}
}

func newDecompressor(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("visit: zstd reader: %w", err)
		}
		return dec, dec.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}
}
