package storage

import (
	"iter"
	"sync"

	"github.com/DangerosoDavo/pool"
)

// Shared stores values that many handles reference at once. Equal values are
// stored once and reference counted, which suits large numbers of objects
// with identical data (e.g. every zombie sharing the same base stats).
//
// Shared values are immutable from the perspective of individual handles. To
// "modify" one, Set a new value for the handle.
type Shared[K any, V comparable] struct {
	mu            sync.RWMutex
	handleToValue map[pool.Handle[K]]uint32 // handle to value ID
	valueToData   map[uint32]*sharedValue[V]
	valueToID     map[V]uint32
	nextValueID   uint32
}

type sharedValue[V comparable] struct {
	data     V
	refCount int
}

// NewShared constructs an empty shared store.
func NewShared[K any, V comparable]() *Shared[K, V] {
	return &Shared[K, V]{
		handleToValue: make(map[pool.Handle[K]]uint32),
		valueToData:   make(map[uint32]*sharedValue[V]),
		valueToID:     make(map[V]uint32),
		nextValueID:   1,
	}
}

// Len returns the number of handles with a value (not unique values).
func (s *Shared[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handleToValue)
}

func (s *Shared[K, V]) Has(h pool.Handle[K]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.handleToValue[h]
	return exists
}

func (s *Shared[K, V]) Get(h pool.Handle[K]) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	valueID, exists := s.handleToValue[h]
	if !exists {
		var zero V
		return zero, false
	}
	return s.valueToData[valueID].data, true
}

// All yields every handle with its value. Order is unspecified.
func (s *Shared[K, V]) All() iter.Seq2[pool.Handle[K], V] {
	return func(yield func(pool.Handle[K], V) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for h, valueID := range s.handleToValue {
			if !yield(h, s.valueToData[valueID].data) {
				return
			}
		}
	}
}

func (s *Shared[K, V]) Set(h pool.Handle[K], value V) error {
	if h.IsNone() {
		return ErrNoneHandle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if oldValueID, exists := s.handleToValue[h]; exists {
		s.decrementRefCountLocked(oldValueID)
	}
	s.handleToValue[h] = s.findOrCreateValueLocked(value)
	return nil
}

func (s *Shared[K, V]) Remove(h pool.Handle[K]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueID, exists := s.handleToValue[h]
	if !exists {
		return false
	}
	delete(s.handleToValue, h)
	s.decrementRefCountLocked(valueID)
	return true
}

func (s *Shared[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.handleToValue)
	clear(s.valueToData)
	clear(s.valueToID)
}

// Retain drops entries whose handle no longer resolves in p. The caller must
// hold whatever lock guards p.
func (s *Shared[K, V]) Retain(p *pool.Pool[K]) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for h, valueID := range s.handleToValue {
		if p.IsValidHandle(h) {
			continue
		}
		delete(s.handleToValue, h)
		s.decrementRefCountLocked(valueID)
		dropped++
	}
	return dropped
}

func (s *Shared[K, V]) findOrCreateValueLocked(value V) uint32 {
	if valueID, ok := s.valueToID[value]; ok {
		s.valueToData[valueID].refCount++
		return valueID
	}

	valueID := s.nextValueID
	s.nextValueID++
	s.valueToData[valueID] = &sharedValue[V]{data: value, refCount: 1}
	s.valueToID[value] = valueID
	return valueID
}

func (s *Shared[K, V]) decrementRefCountLocked(valueID uint32) {
	sharedVal, ok := s.valueToData[valueID]
	if !ok {
		return
	}
	sharedVal.refCount--
	if sharedVal.refCount <= 0 {
		delete(s.valueToData, valueID)
		delete(s.valueToID, sharedVal.data)
	}
}

// Stats returns statistics about the shared store.
func (s *Shared[K, V]) Stats() SharedStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SharedStats{
		HandleCount:      len(s.handleToValue),
		UniqueValueCount: len(s.valueToData),
		SharingRatio:     float64(len(s.handleToValue)) / float64(max(len(s.valueToData), 1)),
	}
}

// SharedStats describes how much sharing a Shared store achieves.
type SharedStats struct {
	HandleCount      int     // handles with a value
	UniqueValueCount int     // distinct stored values
	SharingRatio     float64 // average handles per unique value (higher = more sharing)
}
