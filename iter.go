package pool

import "iter"

// All yields every live object with its handle in index order. The sequence
// reads the pool's storage directly, so it can be ranged over any number of
// times. Mutating payloads through the yielded pointer is allowed; spawning
// into or freeing from p while ranging is not (use a CommandBuffer).
func (p *Pool[T]) All() iter.Seq2[Handle[T], *T] {
	return func(yield func(Handle[T], *T) bool) {
		for i := 0; i < len(p.records); i++ {
			rec := &p.records[i]
			if rec.state != slotOccupied {
				continue
			}
			if !yield(Handle[T]{index: uint32(i), generation: rec.generation}, &rec.payload) {
				return
			}
		}
	}
}

// Values yields a pointer to every live payload in index order.
func (p *Pool[T]) Values() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, v := range p.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Handles yields the handle of every live object in index order.
func (p *Pool[T]) Handles() iter.Seq[Handle[T]] {
	return func(yield func(Handle[T]) bool) {
		for h := range p.All() {
			if !yield(h) {
				return
			}
		}
	}
}

// First returns the live object with the lowest index.
func (p *Pool[T]) First() (Handle[T], *T, bool) {
	for h, v := range p.All() {
		return h, v, true
	}
	return Handle[T]{}, nil, false
}
