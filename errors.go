package pool

import "errors"

var (
	// ErrSlotOccupied indicates SpawnAt targeted a slot that holds a live object.
	ErrSlotOccupied = errors.New("pool: slot already occupied")
	// ErrSlotReserved indicates SpawnAt targeted a slot held by an outstanding ticket.
	ErrSlotReserved = errors.New("pool: slot reserved by a ticket")
	// ErrInvalidGeneration indicates a requested generation would not be newer than the slot's history.
	ErrInvalidGeneration = errors.New("pool: generation must exceed the slot's last generation")
	// ErrTicketRedeemed indicates a ticket was redeemed or cancelled before.
	ErrTicketRedeemed = errors.New("pool: ticket already redeemed")
	// ErrForeignTicket indicates a ticket was presented to a pool that did not issue it.
	ErrForeignTicket = errors.New("pool: ticket issued by another pool")
	// ErrStaleTicket indicates the reserved slot behind a ticket no longer exists, e.g. after Clear.
	ErrStaleTicket = errors.New("pool: ticket no longer matches a reserved slot")
	// ErrStaleHandle is returned by deferred commands that target a handle which is no longer valid.
	ErrStaleHandle = errors.New("pool: stale handle")
	// ErrCapacityExhausted indicates the slot count reached the index range.
	ErrCapacityExhausted = errors.New("pool: capacity exhausted")
	// ErrCorruptFreeList indicates the free list disagrees with the slot states.
	ErrCorruptFreeList = errors.New("pool: corrupt free list")
	// ErrCountMismatch indicates a stored counter disagrees with the slot states.
	ErrCountMismatch = errors.New("pool: count mismatch")
)
