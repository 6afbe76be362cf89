package visit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// DefaultMaxLength bounds length-prefixed strings and byte slices read from a stream.
const DefaultMaxLength = 1 << 30

// readChunk is the largest buffer allocated for a length prefix before its
// bytes have been read.
const readChunk = 64 << 10

// Visitor encodes or decodes values in little-endian order.
type Visitor struct {
	w         io.Writer
	r         io.Reader
	reading   bool
	err       error
	buf       [8]byte
	maxLength uint32
	registry  *Registry
}

// NewWriter returns a visitor that encodes visited values into w.
func NewWriter(w io.Writer) *Visitor {
	return &Visitor{w: w, maxLength: DefaultMaxLength}
}

// NewReader returns a visitor that decodes visited values from r.
func NewReader(r io.Reader) *Visitor {
	return &Visitor{r: r, reading: true, maxLength: DefaultMaxLength}
}

// IsReading reports whether the visitor decodes values.
func (v *Visitor) IsReading() bool {
	return v.reading
}

// Err returns the first error encountered by the visitor.
func (v *Visitor) Err() error {
	return v.err
}

// Fail records err unless an earlier error is already recorded.
func (v *Visitor) Fail(err error) {
	if v.err == nil && err != nil {
		v.err = err
	}
}

// Failf records a formatted error unless an earlier error is already recorded.
func (v *Visitor) Failf(format string, args ...any) {
	v.Fail(fmt.Errorf(format, args...))
}

// SetRegistry attaches the type registry used by polymorphic payload codecs.
func (v *Visitor) SetRegistry(r *Registry) {
	v.registry = r
}

// Registry returns the attached type registry, or nil.
func (v *Visitor) Registry() *Registry {
	return v.registry
}

// SetMaxLength overrides the limit applied to length prefixes while reading.
func (v *Visitor) SetMaxLength(n uint32) {
	if n == 0 {
		n = DefaultMaxLength
	}
	v.maxLength = n
}

func (v *Visitor) write(p []byte) {
	if v.err != nil {
		return
	}
	if _, err := v.w.Write(p); err != nil {
		v.err = err
	}
}

func (v *Visitor) read(p []byte) bool {
	if v.err != nil {
		return false
	}
	if _, err := io.ReadFull(v.r, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		v.err = err
		return false
	}
	return true
}

// Uint8 visits a single byte.
func (v *Visitor) Uint8(p *uint8) {
	b := v.buf[:1]
	if v.reading {
		if v.read(b) {
			*p = b[0]
		}
		return
	}
	b[0] = *p
	v.write(b)
}

// Bool visits a boolean encoded as one byte.
func (v *Visitor) Bool(p *bool) {
	var b uint8
	if *p {
		b = 1
	}
	v.Uint8(&b)
	if v.reading && v.err == nil {
		if b > 1 {
			v.Failf("visit: invalid bool byte %d", b)
			return
		}
		*p = b == 1
	}
}

// Uint32 visits a 32-bit unsigned integer.
func (v *Visitor) Uint32(p *uint32) {
	b := v.buf[:4]
	if v.reading {
		if v.read(b) {
			*p = binary.LittleEndian.Uint32(b)
		}
		return
	}
	binary.LittleEndian.PutUint32(b, *p)
	v.write(b)
}

// Uint64 visits a 64-bit unsigned integer.
func (v *Visitor) Uint64(p *uint64) {
	b := v.buf[:8]
	if v.reading {
		if v.read(b) {
			*p = binary.LittleEndian.Uint64(b)
		}
		return
	}
	binary.LittleEndian.PutUint64(b, *p)
	v.write(b)
}

// Int32 visits a 32-bit signed integer.
func (v *Visitor) Int32(p *int32) {
	u := uint32(*p)
	v.Uint32(&u)
	if v.reading {
		*p = int32(u)
	}
}

// Int64 visits a 64-bit signed integer.
func (v *Visitor) Int64(p *int64) {
	u := uint64(*p)
	v.Uint64(&u)
	if v.reading {
		*p = int64(u)
	}
}

// Float32 visits an IEEE-754 single precision float.
func (v *Visitor) Float32(p *float32) {
	u := math.Float32bits(*p)
	v.Uint32(&u)
	if v.reading {
		*p = math.Float32frombits(u)
	}
}

// Float64 visits an IEEE-754 double precision float.
func (v *Visitor) Float64(p *float64) {
	u := math.Float64bits(*p)
	v.Uint64(&u)
	if v.reading {
		*p = math.Float64frombits(u)
	}
}

// Len visits a collection length and enforces the read limit.
func (v *Visitor) Len(n *int) {
	if !v.reading && (*n < 0 || uint64(*n) > math.MaxUint32) {
		v.Failf("visit: length %d out of range", *n)
		return
	}
	u := uint32(*n)
	v.Uint32(&u)
	if !v.reading || v.err != nil {
		return
	}
	if u > v.maxLength {
		v.Fail(fmt.Errorf("%w: %d > %d", ErrLengthTooLarge, u, v.maxLength))
		return
	}
	*n = int(u)
}

// Bytes visits a length-prefixed byte slice.
func (v *Visitor) Bytes(p *[]byte) {
	n := len(*p)
	v.Len(&n)
	if v.err != nil {
		return
	}
	if !v.reading {
		v.write(*p)
		return
	}
	if n <= readChunk {
		out := make([]byte, n)
		if v.read(out) {
			*p = out
		}
		return
	}
	// Large prefixes are not trusted: memory grows with the bytes that
	// actually arrive, not with the claimed length.
	var b bytes.Buffer
	b.Grow(readChunk)
	got, err := io.CopyN(&b, v.r, int64(n))
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		v.Fail(fmt.Errorf("visit: read %d of %d bytes: %w", got, n, err))
		return
	}
	*p = b.Bytes()
}

// String visits a length-prefixed UTF-8 string.
func (v *Visitor) String(p *string) {
	b := []byte(*p)
	v.Bytes(&b)
	if v.reading && v.err == nil {
		*p = string(b)
	}
}
