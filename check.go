package pool

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Occupancy returns the set of live slot indices.
func (p *Pool[T]) Occupancy() *roaring.Bitmap {
	bm := roaring.New()
	for i := range p.records {
		if p.records[i].state == slotOccupied {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// CheckInvariants verifies the bookkeeping of p: the free list holds every
// reusable vacant slot exactly once and nothing else, and the live and
// reserved counters match the slot states. It is O(slots) and meant for
// tests and debug builds.
func (p *Pool[T]) CheckInvariants() error {
	return checkSlots(p.records, p.free, p.alive, p.reserved)
}

func checkSlots[T any](records []record[T], free []uint32, alive, reserved uint32) error {
	seen := roaring.New()
	for _, index := range free {
		if uint64(index) >= uint64(len(records)) {
			return fmt.Errorf("%w: index %d out of range %d", ErrCorruptFreeList, index, len(records))
		}
		if !seen.CheckedAdd(index) {
			return fmt.Errorf("%w: index %d listed twice", ErrCorruptFreeList, index)
		}
		if st := records[index].state; st != slotVacant {
			return fmt.Errorf("%w: index %d is %s", ErrCorruptFreeList, index, st)
		}
		if records[index].retired() {
			return fmt.Errorf("%w: index %d is retired", ErrCorruptFreeList, index)
		}
	}

	var gotAlive, gotReserved uint32
	for i := range records {
		rec := &records[i]
		switch rec.state {
		case slotOccupied:
			gotAlive++
			if rec.generation == invalidGeneration {
				return fmt.Errorf("%w: occupied slot %d has generation 0", ErrCountMismatch, i)
			}
		case slotReserved:
			gotReserved++
		case slotVacant:
			if !rec.retired() && !seen.Contains(uint32(i)) {
				return fmt.Errorf("%w: vacant slot %d missing", ErrCorruptFreeList, i)
			}
		}
	}
	if gotAlive != alive {
		return fmt.Errorf("%w: alive %d, counted %d", ErrCountMismatch, alive, gotAlive)
	}
	if gotReserved != reserved {
		return fmt.Errorf("%w: reserved %d, counted %d", ErrCountMismatch, reserved, gotReserved)
	}
	return nil
}
