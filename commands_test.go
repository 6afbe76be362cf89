package pool_test

import (
	"errors"
	"testing"

	"github.com/DangerosoDavo/pool"
)

type enemy struct {
	hp int
}

func TestSpawnCommand(t *testing.T) {
	p := pool.New[enemy]()
	var h pool.Handle[enemy]
	cmd := pool.NewSpawnCommand(enemy{hp: 10}, &h)
	if err := cmd.Apply(p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if h.IsNone() {
		t.Fatalf("expected handle to be populated")
	}
	if !p.IsValidHandle(h) {
		t.Fatalf("expected object to exist")
	}

	if err := pool.NewSpawnCommand(enemy{}, nil).Apply(p); err != nil {
		t.Fatalf("apply without target: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 objects, got %d", p.Len())
	}
}

func TestFreeCommand(t *testing.T) {
	p := pool.New[enemy]()
	h := p.Spawn(enemy{hp: 1})
	cmd := pool.NewFreeCommand(h)
	if err := cmd.Apply(p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if p.IsValidHandle(h) {
		t.Fatalf("expected object freed")
	}

	err := cmd.Apply(p)
	if !errors.Is(err, pool.ErrStaleHandle) {
		t.Fatalf("expected stale handle error, got %v", err)
	}
	if err := pool.NewFreeCommand(pool.None[enemy]()).Apply(p); err == nil {
		t.Fatalf("expected error freeing the none handle")
	}
}

func TestReplaceCommand(t *testing.T) {
	p := pool.New[enemy]()
	h := p.Spawn(enemy{hp: 1})

	if err := pool.NewReplaceCommand(h, enemy{hp: 99}).Apply(p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	value, ok := p.Value(h)
	if !ok || value.hp != 99 {
		t.Fatalf("unexpected state: value=%v, ok=%v", value, ok)
	}

	p.Free(h)
	if err := pool.NewReplaceCommand(h, enemy{}).Apply(p); !errors.Is(err, pool.ErrStaleHandle) {
		t.Fatalf("expected stale handle error, got %v", err)
	}
}

func TestSpawnAtCommand(t *testing.T) {
	p := pool.New[enemy]()
	h := pool.NewHandle[enemy](2, 4)
	if err := pool.NewSpawnAtCommand(h, enemy{hp: 5}).Apply(p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !p.IsValidHandle(h) {
		t.Fatalf("expected object at %v", h)
	}
	if err := pool.NewSpawnAtCommand(h, enemy{}).Apply(p); !errors.Is(err, pool.ErrSlotOccupied) {
		t.Fatalf("expected occupied error, got %v", err)
	}
}
