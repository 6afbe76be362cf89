package pool

import (
	"io"
	"sync"

	"github.com/DangerosoDavo/pool/pool/visit"
)

// SharedPool guards one Pool with one read-write lock. Every operation holds
// the lock for its full duration; there is no finer-grained locking.
type SharedPool[T any] struct {
	mu     sync.RWMutex
	pool   *Pool[T]
	logger Logger
}

// SharedOption configures a SharedPool.
type SharedOption func(*sharedConfig)

type sharedConfig struct {
	logger Logger
}

// WithSharedLogger sets the logger used for save and load diagnostics.
func WithSharedLogger(l Logger) SharedOption {
	return func(c *sharedConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewShared wraps p, or a fresh pool when p is nil. The caller must stop
// using p directly.
func NewShared[T any](p *Pool[T], opts ...SharedOption) *SharedPool[T] {
	cfg := sharedConfig{logger: noopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if p == nil {
		p = New[T]()
	}
	return &SharedPool[T]{pool: p, logger: cfg.logger}
}

// Read runs fn with shared access. fn must not retain p or pointers into it.
func (s *SharedPool[T]) Read(fn func(p *Pool[T])) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.pool)
}

// Write runs fn with exclusive access. fn must not retain p or pointers into it.
func (s *SharedPool[T]) Write(fn func(p *Pool[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.pool)
}

// Spawn stores value.
func (s *SharedPool[T]) Spawn(value T) Handle[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Spawn(value)
}

// Free removes the object h refers to.
func (s *SharedPool[T]) Free(h Handle[T]) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Free(h)
}

// Value returns a copy of the payload h refers to.
func (s *SharedPool[T]) Value(h Handle[T]) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Value(h)
}

// Update runs fn on the payload h refers to under the write lock.
func (s *SharedPool[T]) Update(h Handle[T], fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.pool.Get(h)
	if !ok {
		return false
	}
	fn(v)
	return true
}

// IsValidHandle reports whether h refers to a live object.
func (s *SharedPool[T]) IsValidHandle(h Handle[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.IsValidHandle(h)
}

// Len returns the number of live objects.
func (s *SharedPool[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Len()
}

// Save writes the pool under the read lock.
func (s *SharedPool[T]) Save(w io.Writer, codec visit.PayloadCodec[T], opts ...visit.Option) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.pool.Save(w, codec, opts...); err != nil {
		s.logger.Error("pool save failed", "err", err)
		return err
	}
	s.logger.Info("pool saved", "alive", s.pool.Len(), "slots", s.pool.SlotCount())
	return nil
}

// Load replaces the pool's contents under the write lock.
func (s *SharedPool[T]) Load(r io.Reader, codec visit.PayloadCodec[T], opts ...visit.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pool.Load(r, codec, opts...); err != nil {
		s.logger.Error("pool load failed", "err", err)
		return err
	}
	s.logger.Info("pool loaded", "alive", s.pool.Len(), "slots", s.pool.SlotCount())
	return nil
}
