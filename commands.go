package pool

import "fmt"

// Command is a deferred pool mutation applied outside iteration.
type Command[T any] interface {
	Apply(p *Pool[T]) error
}

// NewSpawnCommand enqueues a spawn. If target is non-nil it receives the allocated handle.
func NewSpawnCommand[T any](value T, target *Handle[T]) Command[T] {
	return spawnCommand[T]{value: value, target: target}
}

// NewFreeCommand enqueues freeing h. Applying it to a stale handle fails.
func NewFreeCommand[T any](h Handle[T]) Command[T] {
	return freeCommand[T]{handle: h}
}

// NewReplaceCommand enqueues replacing the payload behind h.
func NewReplaceCommand[T any](h Handle[T], value T) Command[T] {
	return replaceCommand[T]{handle: h, value: value}
}

// NewSpawnAtCommand enqueues SpawnAt(h, value).
func NewSpawnAtCommand[T any](h Handle[T], value T) Command[T] {
	return spawnAtCommand[T]{handle: h, value: value}
}

type spawnCommand[T any] struct {
	value  T
	target *Handle[T]
}

type freeCommand[T any] struct {
	handle Handle[T]
}

type replaceCommand[T any] struct {
	handle Handle[T]
	value  T
}

type spawnAtCommand[T any] struct {
	handle Handle[T]
	value  T
}

func (c spawnCommand[T]) Apply(p *Pool[T]) error {
	h := p.Spawn(c.value)
	if c.target != nil {
		*c.target = h
	}
	return nil
}

func (c freeCommand[T]) Apply(p *Pool[T]) error {
	if c.handle.IsNone() {
		return fmt.Errorf("pool: free none handle")
	}
	if _, ok := p.Free(c.handle); !ok {
		return fmt.Errorf("%w: free %v", ErrStaleHandle, c.handle)
	}
	return nil
}

func (c replaceCommand[T]) Apply(p *Pool[T]) error {
	if _, ok := p.Replace(c.handle, c.value); !ok {
		return fmt.Errorf("%w: replace %v", ErrStaleHandle, c.handle)
	}
	return nil
}

func (c spawnAtCommand[T]) Apply(p *Pool[T]) error {
	return p.SpawnAt(c.handle, c.value)
}
