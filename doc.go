// Package pool provides a generational arena for long-lived engine objects.
//
// A Pool[T] stores payloads in a dense slot slice and hands out Handle[T]
// values (slot index plus generation) instead of pointers. Objects refer to
// each other by handle, which keeps parent/child links and cross references
// free of ownership cycles: a handle is an inert value that is resolved
// through the pool at the point of use and simply stops resolving once its
// object is freed.
//
//	p := pool.New[string]()
//	a := p.Spawn("a")      // Handle(0:1)
//	p.Free(a)
//	c := p.Spawn("c")      // Handle(0:2), slot 0 reused
//	_, ok := p.Value(a)    // ok == false, a is stale
//
// Reservations (Reserve, PutReserved) let a payload be built with its own
// handle. Visit, Save and Load round-trip a pool through the binary format of
// package visit while preserving every handle and the slot reuse order.
package pool
