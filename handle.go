package pool

import (
	"cmp"
	"fmt"
	"sync/atomic"

	"github.com/DangerosoDavo/pool/pool/visit"
)

// Handle identifies a slot in a Pool[T] and encodes a generation for
// stale-handle detection. The type parameter only tags the handle; it is not
// stored. Handles are plain values: copy, compare and use them as map keys
// freely. A handle is only meaningful for the pool that issued it.
//
// The zero value is the none handle. Generation 0 is never issued, so the
// none handle is invalid in every pool.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

// NewHandle constructs a handle from raw components.
func NewHandle[T any](index, generation uint32) Handle[T] {
	return Handle[T]{index: index, generation: generation}
}

// None returns the none handle for T.
func None[T any]() Handle[T] {
	return Handle[T]{}
}

// Index returns the slot position of the handle.
func (h Handle[T]) Index() uint32 {
	return h.index
}

// Generation returns the generation the slot must carry for the handle to be valid.
func (h Handle[T]) Generation() uint32 {
	return h.generation
}

// IsNone reports whether h is the none handle.
func (h Handle[T]) IsNone() bool {
	return h.generation == invalidGeneration
}

// IsSome reports whether h may refer to an object.
func (h Handle[T]) IsSome() bool {
	return !h.IsNone()
}

// Erase drops the type tag.
func (h Handle[T]) Erase() ErasedHandle {
	return ErasedHandle{index: h.index, generation: h.generation}
}

// Encode packs the handle into a single integer, index in the high half.
func (h Handle[T]) Encode() uint64 {
	return uint64(h.index)<<32 | uint64(h.generation)
}

// DecodeHandle reverses Handle.Encode.
func DecodeHandle[T any](v uint64) Handle[T] {
	return Handle[T]{index: uint32(v >> 32), generation: uint32(v)}
}

// Cast re-tags a handle with another payload type. The result is only
// meaningful if the slot really holds a U.
func Cast[U, T any](h Handle[T]) Handle[U] {
	return Handle[U]{index: h.index, generation: h.generation}
}

// Compare orders handles by index, then generation. It fits slices.SortFunc.
func Compare[T any](a, b Handle[T]) int {
	if c := cmp.Compare(a.index, b.index); c != 0 {
		return c
	}
	return cmp.Compare(a.generation, b.generation)
}

// String renders the handle for debugging purposes.
func (h Handle[T]) String() string {
	if h.IsNone() {
		return "Handle(none)"
	}
	return fmt.Sprintf("Handle(%d:%d)", h.index, h.generation)
}

// Visit saves or loads the handle as index then generation.
func (h *Handle[T]) Visit(v *visit.Visitor) {
	v.Uint32(&h.index)
	v.Uint32(&h.generation)
}

// ErasedHandle is a handle without a type tag, used where heterogeneous
// handles share one container.
type ErasedHandle struct {
	index      uint32
	generation uint32
}

// NewErasedHandle constructs an erased handle from raw components.
func NewErasedHandle(index, generation uint32) ErasedHandle {
	return ErasedHandle{index: index, generation: generation}
}

// Index returns the slot position.
func (h ErasedHandle) Index() uint32 { return h.index }

// Generation returns the generation.
func (h ErasedHandle) Generation() uint32 { return h.generation }

// IsNone reports whether h is the none handle.
func (h ErasedHandle) IsNone() bool { return h.generation == invalidGeneration }

func (h ErasedHandle) String() string {
	if h.IsNone() {
		return "ErasedHandle(none)"
	}
	return fmt.Sprintf("ErasedHandle(%d:%d)", h.index, h.generation)
}

// Visit saves or loads the handle as index then generation.
func (h *ErasedHandle) Visit(v *visit.Visitor) {
	v.Uint32(&h.index)
	v.Uint32(&h.generation)
}

// Typed restores the type tag.
func Typed[T any](h ErasedHandle) Handle[T] {
	return Handle[T]{index: h.index, generation: h.generation}
}

// AtomicHandle is a handle cell that goroutines may read and write without a
// lock, e.g. a "current target" published by one goroutine and polled by
// others. It only makes the cell atomic: resolving the handle still needs
// whatever lock guards the pool. The zero value holds the none handle.
type AtomicHandle[T any] struct {
	v atomic.Uint64
}

// NewAtomicHandle returns a cell holding h.
func NewAtomicHandle[T any](h Handle[T]) *AtomicHandle[T] {
	a := &AtomicHandle[T]{}
	a.Store(h)
	return a
}

func (a *AtomicHandle[T]) Load() Handle[T] {
	return DecodeHandle[T](a.v.Load())
}

func (a *AtomicHandle[T]) Store(h Handle[T]) {
	a.v.Store(h.Encode())
}

// Swap stores h and returns the previous handle.
func (a *AtomicHandle[T]) Swap(h Handle[T]) Handle[T] {
	return DecodeHandle[T](a.v.Swap(h.Encode()))
}

// CompareAndSwap stores next only if the cell still holds old.
func (a *AtomicHandle[T]) CompareAndSwap(old, next Handle[T]) bool {
	return a.v.CompareAndSwap(old.Encode(), next.Encode())
}

func (a *AtomicHandle[T]) String() string {
	return a.Load().String()
}
