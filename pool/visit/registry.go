package visit

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry maps stable type names to constructors so polymorphic payloads
// can be rebuilt with their concrete type on load.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]func() Visitable
	byType map[reflect.Type]string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]func() Visitable),
		byType: make(map[reflect.Type]string),
	}
}

// Register binds name to the concrete type produced by ctor.
func (r *Registry) Register(name string, ctor func() Visitable) error {
	if ctor == nil {
		return ErrNilConstructor
	}
	sample := ctor()
	if sample == nil {
		return fmt.Errorf("%w: %s returned nil", ErrNilConstructor, name)
	}
	typ := reflect.TypeOf(sample)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrTypeAlreadyRegistered, name)
	}
	if prev, exists := r.byType[typ]; exists {
		return fmt.Errorf("%w: %s already registered as %s", ErrTypeAlreadyRegistered, typ, prev)
	}
	r.byName[name] = ctor
	r.byType[typ] = name
	return nil
}

// MustRegister is Register that panics on error. Intended for init-time tables.
func (r *Registry) MustRegister(name string, ctor func() Visitable) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// New constructs a fresh value of the type registered under name.
func (r *Registry) New(name string) (Visitable, error) {
	r.mu.RLock()
	ctor, ok := r.byName[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, name)
	}
	return ctor(), nil
}

// NameOf returns the registered name of value's concrete type.
func (r *Registry) NameOf(value any) (string, error) {
	typ := reflect.TypeOf(value)

	r.mu.RLock()
	name, ok := r.byType[typ]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %v", ErrTypeNotRegistered, typ)
	}
	return name, nil
}

// Names lists registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
