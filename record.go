package pool

const invalidGeneration uint32 = 0

type slotState uint8

const (
	slotVacant slotState = iota
	slotReserved
	slotOccupied
)

func (s slotState) String() string {
	switch s {
	case slotVacant:
		return "vacant"
	case slotReserved:
		return "reserved"
	case slotOccupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// record is one arena slot. For occupied and reserved slots generation is the
// current generation; for vacant slots it is the generation of the last
// occupant, or 0 if the slot was never occupied.
type record[T any] struct {
	generation uint32
	state      slotState
	payload    T
}

// retired reports whether the slot exhausted its generations. Retired slots
// stay vacant forever and are kept off the free list.
func (r *record[T]) retired() bool {
	return r.state == slotVacant && r.generation == maxGeneration
}

func (r *record[T]) take() T {
	var zero T
	value := r.payload
	r.payload = zero
	return value
}
