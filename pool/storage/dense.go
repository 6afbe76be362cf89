// Package storage keeps side data for objects living in a pool.Pool, keyed by
// their handles.
package storage

import (
	"iter"

	"github.com/DangerosoDavo/pool"
)

// Dense stores one V per handle of a Pool[K], indexed by the handle's slot.
// An entry is only visible through the exact handle it was set with, so a
// value attached to a freed object never leaks to the slot's next occupant.
type Dense[K, V any] struct {
	slots []denseSlot[V]
	count int
}

type denseSlot[V any] struct {
	generation uint32
	value      V
	occupied   bool
}

// NewDense constructs an empty dense store.
func NewDense[K, V any]() *Dense[K, V] {
	return &Dense[K, V]{}
}

func (s *Dense[K, V]) Len() int {
	return s.count
}

func (s *Dense[K, V]) Has(h pool.Handle[K]) bool {
	idx := h.Index()
	if uint64(idx) >= uint64(len(s.slots)) {
		return false
	}
	slot := &s.slots[idx]
	return slot.occupied && slot.generation == h.Generation()
}

func (s *Dense[K, V]) Get(h pool.Handle[K]) (*V, bool) {
	if !s.Has(h) {
		return nil, false
	}
	return &s.slots[h.Index()].value, true
}

// All yields entries in slot order.
func (s *Dense[K, V]) All() iter.Seq2[pool.Handle[K], *V] {
	return func(yield func(pool.Handle[K], *V) bool) {
		for idx := range s.slots {
			slot := &s.slots[idx]
			if !slot.occupied {
				continue
			}
			if !yield(pool.NewHandle[K](uint32(idx), slot.generation), &slot.value) {
				return
			}
		}
	}
}

// Set attaches value to h, replacing whatever the slot held, including an
// entry left behind by an older generation.
func (s *Dense[K, V]) Set(h pool.Handle[K], value V) error {
	if h.IsNone() {
		return ErrNoneHandle
	}
	s.ensureCapacity(int(h.Index()) + 1)
	slot := &s.slots[h.Index()]
	if !slot.occupied {
		s.count++
	}
	slot.occupied = true
	slot.generation = h.Generation()
	slot.value = value
	return nil
}

func (s *Dense[K, V]) Remove(h pool.Handle[K]) bool {
	if !s.Has(h) {
		return false
	}
	s.slots[h.Index()] = denseSlot[V]{}
	s.count--
	return true
}

func (s *Dense[K, V]) Clear() {
	clear(s.slots)
	s.count = 0
}

// Retain drops entries whose handle no longer resolves in p.
func (s *Dense[K, V]) Retain(p *pool.Pool[K]) int {
	dropped := 0
	for idx := range s.slots {
		slot := &s.slots[idx]
		if !slot.occupied {
			continue
		}
		if !p.IsValidHandle(pool.NewHandle[K](uint32(idx), slot.generation)) {
			*slot = denseSlot[V]{}
			s.count--
			dropped++
		}
	}
	return dropped
}

func (s *Dense[K, V]) ensureCapacity(size int) {
	if size <= len(s.slots) {
		return
	}
	diff := size - len(s.slots)
	s.slots = append(s.slots, make([]denseSlot[V], diff)...)
}
