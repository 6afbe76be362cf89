package pool

import (
	"fmt"
	"math"
)

const (
	maxGeneration uint32 = math.MaxUint32
	// maxSlots keeps math.MaxUint32 out of the index range so it is never issued.
	maxSlots = math.MaxUint32
)

// Pool is a generational arena. It owns every payload it stores and hands out
// Handle values that stay safe to hold after the payload is freed: a freed
// slot is recycled under a new generation, so old handles stop resolving
// instead of aliasing the new occupant.
//
// Spawn, Free and lookups are O(1). Freed slots are reused in LIFO order. The
// slot sequence only grows; Clear is the one operation that shrinks it.
//
// A Pool is not safe for concurrent use. Wrap it in a SharedPool, or guard the
// whole pool with one lock, when several goroutines need it. Payload code must
// not mutate the pool it is being spawned into, freed from or iterated from;
// queue such changes in a CommandBuffer instead.
//
// The zero value is an empty pool ready to use.
type Pool[T any] struct {
	records  []record[T]
	free     []uint32
	alive    uint32
	reserved uint32
	epoch    uint64
	observer Observer
}

// New constructs an empty pool.
func New[T any](opts ...Option) *Pool[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Pool[T]{observer: cfg.observer}
	if cfg.capacity > 0 {
		p.records = make([]record[T], 0, cfg.capacity)
	}
	return p
}

// SetObserver replaces the observer notified after slot transitions. nil disables notifications.
func (p *Pool[T]) SetObserver(o Observer) {
	p.observer = o
}

// next reports the slot the next allocation will use, without mutating the pool.
func (p *Pool[T]) next() (uint32, uint32) {
	if n := len(p.free); n > 0 {
		index := p.free[n-1]
		return index, p.records[index].generation + 1
	}
	return uint32(len(p.records)), 1
}

// allocate pops a free slot or appends a new one and returns its index and
// the generation the new occupant gets. The slot is left for the caller to fill.
func (p *Pool[T]) allocate() (uint32, uint32) {
	if n := len(p.free); n > 0 {
		index := p.free[n-1]
		p.free = p.free[:n-1]
		rec := &p.records[index]
		if rec.state != slotVacant {
			panic(fmt.Sprintf("pool: free list holds %s slot %d", rec.state, index))
		}
		return index, rec.generation + 1
	}
	if uint64(len(p.records)) >= maxSlots {
		panic(fmt.Errorf("%w: %d slots", ErrCapacityExhausted, len(p.records)))
	}
	index := uint32(len(p.records))
	p.records = append(p.records, record[T]{})
	return index, 1
}

// Spawn stores value and returns its handle, reusing the most recently freed
// slot if there is one.
func (p *Pool[T]) Spawn(value T) Handle[T] {
	index, generation := p.allocate()
	p.occupy(index, generation, value)
	return Handle[T]{index: index, generation: generation}
}

// SpawnWith constructs the payload with the handle it is about to be stored
// under, so the payload can refer to itself. The handle does not resolve
// until SpawnWith returns, and fn must not mutate p.
func (p *Pool[T]) SpawnWith(fn func(Handle[T]) T) Handle[T] {
	index, generation := p.next()
	value := fn(Handle[T]{index: index, generation: generation})
	gotIndex, gotGeneration := p.allocate()
	if gotIndex != index || gotGeneration != generation {
		panic(fmt.Sprintf("pool: pool mutated while constructing payload for slot %d", index))
	}
	p.occupy(index, generation, value)
	return Handle[T]{index: index, generation: generation}
}

func (p *Pool[T]) occupy(index, generation uint32, value T) {
	rec := &p.records[index]
	rec.generation = generation
	rec.state = slotOccupied
	rec.payload = value
	p.alive++
	p.notify(EventSpawn, index, generation)
}

// SpawnAt stores value under exactly h, padding the slot sequence with vacant
// slots if h lies past its end. It restores handle identity when rebuilding a
// pool from external data. SpawnAt never displaces a live or reserved slot and
// refuses generations that are not newer than the slot's last occupant.
//
// SpawnAt is O(number of free slots) because it has to unlink h's index from
// the free list.
func (p *Pool[T]) SpawnAt(h Handle[T], value T) error {
	if h.IsNone() {
		return fmt.Errorf("%w: %v", ErrInvalidGeneration, h)
	}
	_, err := p.spawnAt(h.index, h.generation, value)
	return err
}

// SpawnAtIndex stores value at index with the next generation for that slot.
func (p *Pool[T]) SpawnAtIndex(index uint32, value T) (Handle[T], error) {
	return p.spawnAt(index, invalidGeneration, value)
}

func (p *Pool[T]) spawnAt(index, generation uint32, value T) (Handle[T], error) {
	if index >= maxSlots {
		return Handle[T]{}, fmt.Errorf("%w: index %d", ErrCapacityExhausted, index)
	}

	if uint64(index) < uint64(len(p.records)) {
		rec := &p.records[index]
		switch rec.state {
		case slotOccupied:
			return Handle[T]{}, fmt.Errorf("%w: index %d", ErrSlotOccupied, index)
		case slotReserved:
			return Handle[T]{}, fmt.Errorf("%w: index %d", ErrSlotReserved, index)
		}
		if rec.retired() {
			return Handle[T]{}, fmt.Errorf("%w: slot %d is retired", ErrInvalidGeneration, index)
		}
		if generation == invalidGeneration {
			generation = rec.generation + 1
		} else if generation <= rec.generation {
			return Handle[T]{}, fmt.Errorf("%w: index %d, requested %d, last %d",
				ErrInvalidGeneration, index, generation, rec.generation)
		}
		p.unlinkFree(index)
	} else {
		if generation == invalidGeneration {
			generation = 1
		}
		for i := uint32(len(p.records)); i < index; i++ {
			p.records = append(p.records, record[T]{})
			p.free = append(p.free, i)
		}
		p.records = append(p.records, record[T]{})
	}

	p.occupy(index, generation, value)
	return Handle[T]{index: index, generation: generation}, nil
}

// unlinkFree removes index from the free list, searching from the top.
func (p *Pool[T]) unlinkFree(index uint32) {
	for i := len(p.free) - 1; i >= 0; i-- {
		if p.free[i] == index {
			p.free = append(p.free[:i], p.free[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("pool: vacant slot %d missing from free list", index))
}

// occupied returns the record h refers to if h is valid.
func (p *Pool[T]) occupied(h Handle[T]) (*record[T], bool) {
	if uint64(h.index) >= uint64(len(p.records)) {
		return nil, false
	}
	rec := &p.records[h.index]
	if rec.state != slotOccupied || rec.generation != h.generation {
		return nil, false
	}
	return rec, true
}

// IsValidHandle reports whether h refers to a live object in p.
func (p *Pool[T]) IsValidHandle(h Handle[T]) bool {
	_, ok := p.occupied(h)
	return ok
}

// Get returns a pointer to the payload h refers to. The pointer aliases the
// pool's storage: mutate through it freely, but do not keep it across any
// call that spawns into or frees from p.
func (p *Pool[T]) Get(h Handle[T]) (*T, bool) {
	rec, ok := p.occupied(h)
	if !ok {
		return nil, false
	}
	return &rec.payload, true
}

// Value returns a copy of the payload h refers to.
func (p *Pool[T]) Value(h Handle[T]) (T, bool) {
	rec, ok := p.occupied(h)
	if !ok {
		var zero T
		return zero, false
	}
	return rec.payload, true
}

// Free removes the object h refers to and returns it. A stale, out of range
// or none handle yields false and leaves p untouched, so freeing twice is safe.
func (p *Pool[T]) Free(h Handle[T]) (T, bool) {
	if _, ok := p.occupied(h); !ok {
		var zero T
		return zero, false
	}
	return p.freeAt(h.index), true
}

// TryFree is an alias of Free.
func (p *Pool[T]) TryFree(h Handle[T]) (T, bool) {
	return p.Free(h)
}

func (p *Pool[T]) freeAt(index uint32) T {
	rec := &p.records[index]
	value := rec.take()
	rec.state = slotVacant
	p.alive--
	p.release(index)
	p.notify(EventFree, index, rec.generation)
	return value
}

// release returns a vacant slot to the free list unless it ran out of generations.
func (p *Pool[T]) release(index uint32) {
	if p.records[index].retired() {
		return
	}
	p.free = append(p.free, index)
}

// Replace swaps the payload h refers to and returns the previous one.
func (p *Pool[T]) Replace(h Handle[T], value T) (T, bool) {
	rec, ok := p.occupied(h)
	if !ok {
		var zero T
		return zero, false
	}
	old := rec.payload
	rec.payload = value
	return old, true
}

// At returns the payload at index regardless of generation.
func (p *Pool[T]) At(index uint32) (*T, bool) {
	if uint64(index) >= uint64(len(p.records)) {
		return nil, false
	}
	rec := &p.records[index]
	if rec.state != slotOccupied {
		return nil, false
	}
	return &rec.payload, true
}

// HandleFromIndex returns the handle of the object at index, or the none handle.
func (p *Pool[T]) HandleFromIndex(index uint32) Handle[T] {
	if uint64(index) >= uint64(len(p.records)) {
		return Handle[T]{}
	}
	rec := &p.records[index]
	if rec.state != slotOccupied {
		return Handle[T]{}
	}
	return Handle[T]{index: index, generation: rec.generation}
}

// Len returns the number of live objects.
func (p *Pool[T]) Len() int {
	return int(p.alive)
}

// SlotCount returns the number of slots, live or not.
func (p *Pool[T]) SlotCount() int {
	return len(p.records)
}

// FreeCount returns the number of slots available for reuse.
func (p *Pool[T]) FreeCount() int {
	return len(p.free)
}

// ReservedCount returns the number of slots held by outstanding tickets.
func (p *Pool[T]) ReservedCount() int {
	return int(p.reserved)
}

// Retain frees every object for which keep returns false.
func (p *Pool[T]) Retain(keep func(*T) bool) {
	for i := 0; i < len(p.records); i++ {
		rec := &p.records[i]
		if rec.state != slotOccupied {
			continue
		}
		if !keep(&rec.payload) {
			p.freeAt(uint32(i))
		}
	}
}

// Clear drops every object and slot. Outstanding handles and tickets become
// invalid; generations restart at 1.
func (p *Pool[T]) Clear() {
	clear(p.records)
	p.records = p.records[:0]
	p.free = p.free[:0]
	p.alive = 0
	p.reserved = 0
	p.epoch++
	p.notify(EventClear, 0, invalidGeneration)
}

// Drain empties the pool, handing each live object to fn in index order.
// The pool is already empty while fn runs, so fn may spawn into it.
func (p *Pool[T]) Drain(fn func(Handle[T], T)) {
	old := p.records
	p.records = nil
	p.free = nil
	p.alive = 0
	p.reserved = 0
	p.epoch++
	p.notify(EventClear, 0, invalidGeneration)
	for i := range old {
		rec := &old[i]
		if rec.state != slotOccupied {
			continue
		}
		fn(Handle[T]{index: uint32(i), generation: rec.generation}, rec.take())
	}
}

// GenerateFreeHandles returns the handles the next n calls to Spawn would
// return, in order, without modifying the pool.
func (p *Pool[T]) GenerateFreeHandles(n int) []Handle[T] {
	if n <= 0 {
		return nil
	}
	out := make([]Handle[T], 0, n)
	for i := len(p.free) - 1; i >= 0 && len(out) < n; i-- {
		index := p.free[i]
		out = append(out, Handle[T]{index: index, generation: p.records[index].generation + 1})
	}
	for index := uint64(len(p.records)); len(out) < n && index < maxSlots; index++ {
		out = append(out, Handle[T]{index: uint32(index), generation: 1})
	}
	return out
}

// Clone returns a copy of p that preserves every handle. copyFn deep-copies
// payloads; nil copies them by assignment. Reserved slots become free slots
// in the copy because tickets stay bound to p. Observers are not copied.
func (p *Pool[T]) Clone(copyFn func(T) T) *Pool[T] {
	out := &Pool[T]{
		records: make([]record[T], len(p.records)),
		free:    append(make([]uint32, 0, len(p.free)), p.free...),
		alive:   p.alive,
	}
	for i := range p.records {
		src := &p.records[i]
		dst := &out.records[i]
		dst.generation = src.generation
		switch src.state {
		case slotOccupied:
			dst.state = slotOccupied
			if copyFn != nil {
				dst.payload = copyFn(src.payload)
			} else {
				dst.payload = src.payload
			}
		case slotReserved:
			dst.state = slotVacant
			out.release(uint32(i))
		}
	}
	return out
}

func (p *Pool[T]) notify(kind EventKind, index, generation uint32) {
	if p.observer == nil {
		return
	}
	p.observer.PoolEvent(Event{
		Kind:   kind,
		Handle: ErasedHandle{index: index, generation: generation},
		Alive:  int(p.alive),
		Slots:  len(p.records),
	})
}
