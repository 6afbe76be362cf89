package pool

import "sync"

// CommandBuffer records spawns and frees requested while a pool is being
// ranged over. Ranging forbids structural changes to the pool, so the
// changes wait in the buffer until Apply runs them in recording order.
//
//	var buf pool.CommandBuffer[Enemy]
//	for h, e := range enemies.All() {
//		if e.HP <= 0 {
//			buf.Free(h)
//		}
//	}
//	err := buf.Apply(enemies)
//
// The zero value is an empty buffer.
type CommandBuffer[T any] struct {
	queued []Command[T]
}

// NewCommandBuffer returns an empty buffer.
func NewCommandBuffer[T any]() *CommandBuffer[T] {
	return &CommandBuffer[T]{}
}

// Len is the number of queued commands.
func (b *CommandBuffer[T]) Len() int {
	return len(b.queued)
}

// Push queues cmd. nil is ignored.
func (b *CommandBuffer[T]) Push(cmd Command[T]) {
	if cmd != nil {
		b.queued = append(b.queued, cmd)
	}
}

// Spawn queues a spawn of value. After Apply, target (if non-nil) holds the
// new object's handle.
func (b *CommandBuffer[T]) Spawn(value T, target *Handle[T]) {
	b.Push(NewSpawnCommand(value, target))
}

// Free queues freeing the object behind h.
func (b *CommandBuffer[T]) Free(h Handle[T]) {
	b.Push(NewFreeCommand(h))
}

// Drain hands over the queued commands and leaves the buffer empty.
func (b *CommandBuffer[T]) Drain() []Command[T] {
	queued := b.queued
	b.queued = nil
	return queued
}

// Snapshot marks the current end of the queue. Pass it to Restore to drop
// everything queued after the mark, e.g. when a payload update that queued
// several changes is abandoned halfway.
func (b *CommandBuffer[T]) Snapshot() int {
	return len(b.queued)
}

// Restore drops commands queued after mark. Marks beyond the queue are ignored.
func (b *CommandBuffer[T]) Restore(mark int) {
	mark = max(mark, 0)
	if mark < len(b.queued) {
		clear(b.queued[mark:])
		b.queued = b.queued[:mark]
	}
}

// Apply runs the queued commands against p in recording order and empties
// the buffer. The first failing command aborts the run: its error is
// returned and the commands behind it are dropped, while the ones before it
// stay applied.
func (b *CommandBuffer[T]) Apply(p *Pool[T]) error {
	for _, cmd := range b.Drain() {
		if err := cmd.Apply(p); err != nil {
			return err
		}
	}
	return nil
}

// CommandBufferPool recycles command buffers between frames so per-frame
// deferral does not allocate a fresh queue each time.
type CommandBufferPool[T any] struct {
	buffers sync.Pool
}

// NewCommandBufferPool returns a recycler that hands out empty buffers.
func NewCommandBufferPool[T any]() *CommandBufferPool[T] {
	bp := &CommandBufferPool[T]{}
	bp.buffers.New = func() any { return new(CommandBuffer[T]) }
	return bp
}

// Get returns an empty buffer.
func (bp *CommandBufferPool[T]) Get() *CommandBuffer[T] {
	return bp.buffers.Get().(*CommandBuffer[T])
}

// Put empties buf and makes it available to Get. Commands still queued in
// buf are discarded without being applied.
func (bp *CommandBufferPool[T]) Put(buf *CommandBuffer[T]) {
	if buf == nil {
		return
	}
	clear(buf.queued)
	buf.queued = buf.queued[:0]
	bp.buffers.Put(buf)
}
