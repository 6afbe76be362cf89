package pool

import "fmt"

// Ticket is a claim on a reserved slot. Redeem it with Pool.PutReserved or
// give the slot back with Cancel; an abandoned ticket leaks its slot until
// the pool is cleared. The usual pattern is:
//
//	ticket, h := p.Reserve()
//	defer ticket.Cancel()
//	node := buildNode(h)
//	p.PutReserved(ticket, node)
type Ticket[T any] struct {
	pool       *Pool[T]
	index      uint32
	generation uint32
	epoch      uint64
	done       bool
}

// Handle returns the handle the slot will have once the ticket is redeemed.
func (t *Ticket[T]) Handle() Handle[T] {
	return Handle[T]{index: t.index, generation: t.generation}
}

// Done reports whether the ticket was redeemed or cancelled.
func (t *Ticket[T]) Done() bool {
	return t.done
}

// Cancel returns the reserved slot to the free list. The promised handle
// never becomes valid. Cancel is a no-op on a redeemed or cancelled ticket.
func (t *Ticket[T]) Cancel() {
	if t == nil || t.done || t.pool == nil {
		return
	}
	t.done = true
	p := t.pool
	rec, ok := p.reservedFor(t)
	if !ok {
		return
	}
	rec.take()
	rec.state = slotVacant
	p.reserved--
	p.release(t.index)
	p.notify(EventCancel, t.index, t.generation)
}

func (t *Ticket[T]) String() string {
	return fmt.Sprintf("Ticket(%d:%d)", t.index, t.generation)
}

// Reserve claims a slot exactly as Spawn would but leaves it empty. The
// returned handle can be embedded in the payload before it exists; it does
// not resolve until the ticket is redeemed.
func (p *Pool[T]) Reserve() (*Ticket[T], Handle[T]) {
	index, generation := p.allocate()
	rec := &p.records[index]
	rec.generation = generation
	rec.state = slotReserved
	p.reserved++
	p.notify(EventReserve, index, generation)
	t := &Ticket[T]{pool: p, index: index, generation: generation, epoch: p.epoch}
	return t, t.Handle()
}

// TakeReserve moves the object h refers to out of the pool while keeping its
// slot and handle claimed. PutReserved puts a value back under the same handle.
func (p *Pool[T]) TakeReserve(h Handle[T]) (*Ticket[T], T, bool) {
	rec, ok := p.occupied(h)
	if !ok {
		var zero T
		return nil, zero, false
	}
	value := rec.take()
	rec.state = slotReserved
	p.alive--
	p.reserved++
	p.notify(EventReserve, h.index, h.generation)
	return &Ticket[T]{pool: p, index: h.index, generation: h.generation, epoch: p.epoch}, value, true
}

// PutReserved fills the slot claimed by t and returns the handle promised at
// reservation time.
func (p *Pool[T]) PutReserved(t *Ticket[T], value T) (Handle[T], error) {
	if t == nil || t.pool != p {
		return Handle[T]{}, ErrForeignTicket
	}
	if t.done {
		return Handle[T]{}, fmt.Errorf("%w: %v", ErrTicketRedeemed, t)
	}
	rec, ok := p.reservedFor(t)
	if !ok {
		t.done = true
		return Handle[T]{}, fmt.Errorf("%w: %v", ErrStaleTicket, t)
	}
	t.done = true
	rec.payload = value
	rec.state = slotOccupied
	p.reserved--
	p.alive++
	p.notify(EventRedeem, t.index, t.generation)
	return t.Handle(), nil
}

func (p *Pool[T]) reservedFor(t *Ticket[T]) (*record[T], bool) {
	if t.epoch != p.epoch || uint64(t.index) >= uint64(len(p.records)) {
		return nil, false
	}
	rec := &p.records[t.index]
	if rec.state != slotReserved || rec.generation != t.generation {
		return nil, false
	}
	return rec, true
}
