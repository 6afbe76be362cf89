package storage

import (
	"testing"

	"github.com/DangerosoDavo/pool"
)

type GameStats struct {
	Health       int
	AttackDamage int
	Defense      int
}

func TestShared_BasicOperations(t *testing.T) {
	store := NewShared[unit, GameStats]()

	h1 := pool.NewHandle[unit](1, 1)
	h2 := pool.NewHandle[unit](2, 1)
	stats := GameStats{Health: 100, AttackDamage: 25, Defense: 10}

	if err := store.Set(h1, stats); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}
	if err := store.Set(h2, stats); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	if !store.Has(h1) || !store.Has(h2) {
		t.Fatal("both handles should have a value")
	}
	if val, ok := store.Get(h1); !ok || val.Health != 100 {
		t.Errorf("unexpected value for h1: %+v, ok=%v", val, ok)
	}
	if val, ok := store.Get(h2); !ok || val.AttackDamage != 25 {
		t.Errorf("unexpected value for h2: %+v, ok=%v", val, ok)
	}

	// Both handles should share one stored value
	st := store.Stats()
	if st.HandleCount != 2 {
		t.Errorf("expected 2 handles, got %d", st.HandleCount)
	}
	if st.UniqueValueCount != 1 {
		t.Errorf("expected 1 unique value, got %d", st.UniqueValueCount)
	}
	if st.SharingRatio != 2.0 {
		t.Errorf("expected sharing ratio 2.0, got %f", st.SharingRatio)
	}
}

func TestShared_RefCounting(t *testing.T) {
	store := NewShared[unit, GameStats]()
	weak := GameStats{Health: 50}
	strong := GameStats{Health: 200}

	var handles []pool.Handle[unit]
	for i := range uint32(10) {
		h := pool.NewHandle[unit](i, 1)
		handles = append(handles, h)
		if err := store.Set(h, weak); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if got := store.Stats().UniqueValueCount; got != 1 {
		t.Fatalf("expected 1 unique value, got %d", got)
	}

	// Reassigning one handle adds a value without dropping the shared one
	if err := store.Set(handles[0], strong); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := store.Stats().UniqueValueCount; got != 2 {
		t.Fatalf("expected 2 unique values, got %d", got)
	}

	for _, h := range handles[1:] {
		if !store.Remove(h) {
			t.Fatalf("remove %v failed", h)
		}
	}
	st := store.Stats()
	if st.HandleCount != 1 || st.UniqueValueCount != 1 {
		t.Fatalf("expected the weak value to be dropped, got %+v", st)
	}
	if val, _ := store.Get(handles[0]); val != strong {
		t.Fatalf("unexpected remaining value %+v", val)
	}

	if store.Remove(handles[1]) {
		t.Fatal("second remove should report false")
	}
}

func TestShared_RetainAndClear(t *testing.T) {
	units := pool.New[unit]()
	a := units.Spawn(unit{name: "a"})
	b := units.Spawn(unit{name: "b"})

	store := NewShared[unit, GameStats]()
	base := GameStats{Health: 10}
	_ = store.Set(a, base)
	_ = store.Set(b, base)

	units.Free(a)
	if dropped := store.Retain(units); dropped != 1 {
		t.Fatalf("expected 1 dropped entry, got %d", dropped)
	}
	if store.Has(a) || !store.Has(b) {
		t.Fatal("retain kept the wrong entries")
	}

	seen := 0
	for h, v := range store.All() {
		seen++
		if h != b || v != base {
			t.Fatalf("unexpected entry %v=%+v", h, v)
		}
	}
	if seen != 1 {
		t.Fatalf("expected 1 entry, saw %d", seen)
	}

	store.Clear()
	if store.Len() != 0 || store.Stats().UniqueValueCount != 0 {
		t.Fatalf("expected empty store after clear, got %+v", store.Stats())
	}
}

func TestShared_RejectsNoneHandle(t *testing.T) {
	store := NewShared[unit, GameStats]()
	if err := store.Set(pool.Handle[unit]{}, GameStats{}); err != ErrNoneHandle {
		t.Fatalf("expected ErrNoneHandle, got %v", err)
	}
}
