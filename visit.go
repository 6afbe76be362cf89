package pool

import (
	"fmt"
	"io"
	"slices"

	"github.com/DangerosoDavo/pool/pool/visit"
)

const (
	tagVacant   uint8 = 0
	tagOccupied uint8 = 1

	// loadPrealloc caps the slot preallocation trusted from a stream header.
	loadPrealloc = 1 << 16
)

// Visit saves p through a writing visitor or replaces p's contents from a
// reading one. Body layout:
//
//	slots u32 | alive u32
//	slots × (tag u8 | generation u32 | payload if tag == 1)
//	free u32 | free × index u32
//
// Vacant slots keep their last generation so a reloaded pool never reissues
// a handle the saved pool had already retired. The free list is stored in
// stack order, so the reloaded pool reuses slots in the same order the saved
// one would have. Reserved slots are saved as free slots.
//
// On a failed load p is left unchanged and the error is recorded on v.
func (p *Pool[T]) Visit(v *visit.Visitor, codec visit.PayloadCodec[T]) {
	if v.IsReading() {
		p.load(v, codec)
		return
	}
	p.save(v, codec)
}

// Save writes p to w as a framed stream.
func (p *Pool[T]) Save(w io.Writer, codec visit.PayloadCodec[T], opts ...visit.Option) error {
	return visit.Encode(w, func(v *visit.Visitor) { p.Visit(v, codec) }, opts...)
}

// Load replaces p's contents with a stream written by Save.
func (p *Pool[T]) Load(r io.Reader, codec visit.PayloadCodec[T], opts ...visit.Option) error {
	return visit.Decode(r, func(v *visit.Visitor) { p.Visit(v, codec) }, opts...)
}

func (p *Pool[T]) save(v *visit.Visitor, codec visit.PayloadCodec[T]) {
	slots := uint32(len(p.records))
	alive := p.alive
	v.Uint32(&slots)
	v.Uint32(&alive)
	for i := range p.records {
		rec := &p.records[i]
		tag := tagVacant
		if rec.state == slotOccupied {
			tag = tagOccupied
		}
		generation := rec.generation
		v.Uint8(&tag)
		v.Uint32(&generation)
		if tag == tagOccupied {
			codec.VisitPayload(v, &rec.payload)
		}
		if v.Err() != nil {
			return
		}
	}

	free := p.persistedFree()
	count := uint32(len(free))
	v.Uint32(&count)
	for i := range free {
		v.Uint32(&free[i])
	}
}

// persistedFree is the free list as it will exist after a reload: the live
// free stack with reserved slots pushed on top in index order.
func (p *Pool[T]) persistedFree() []uint32 {
	free := slices.Clone(p.free)
	if p.reserved == 0 {
		return free
	}
	for i := range p.records {
		rec := &p.records[i]
		if rec.state == slotReserved && rec.generation != maxGeneration {
			free = append(free, uint32(i))
		}
	}
	return free
}

func (p *Pool[T]) load(v *visit.Visitor, codec visit.PayloadCodec[T]) {
	var slots, alive uint32
	v.Uint32(&slots)
	v.Uint32(&alive)
	if v.Err() != nil {
		return
	}
	if uint64(slots) >= maxSlots {
		v.Fail(fmt.Errorf("%w: %d slots", ErrCapacityExhausted, slots))
		return
	}

	records := make([]record[T], 0, min(slots, loadPrealloc))
	for i := uint32(0); i < slots; i++ {
		var tag uint8
		var generation uint32
		v.Uint8(&tag)
		v.Uint32(&generation)
		if v.Err() != nil {
			return
		}
		rec := record[T]{generation: generation}
		switch tag {
		case tagVacant:
		case tagOccupied:
			if generation == invalidGeneration {
				v.Fail(fmt.Errorf("pool: load: occupied slot %d has generation 0", i))
				return
			}
			rec.state = slotOccupied
			codec.VisitPayload(v, &rec.payload)
			if v.Err() != nil {
				return
			}
		default:
			v.Fail(fmt.Errorf("pool: load: slot %d has unknown tag %d", i, tag))
			return
		}
		records = append(records, rec)
	}

	var count uint32
	v.Uint32(&count)
	if v.Err() != nil {
		return
	}
	if count > slots {
		v.Fail(fmt.Errorf("%w: %d free entries for %d slots", ErrCorruptFreeList, count, slots))
		return
	}
	free := make([]uint32, count)
	for i := range free {
		v.Uint32(&free[i])
	}
	if v.Err() != nil {
		return
	}
	if err := checkSlots(records, free, alive, 0); err != nil {
		v.Fail(fmt.Errorf("pool: load: %w", err))
		return
	}

	p.records = records
	p.free = free
	p.alive = alive
	p.reserved = 0
	p.epoch++
	p.notify(EventLoad, 0, invalidGeneration)
}
