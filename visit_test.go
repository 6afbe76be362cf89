package pool

import (
	"bytes"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DangerosoDavo/pool/pool/visit"
)

var stringCodec = visit.PayloadFunc[string](func(v *visit.Visitor, p *string) {
	v.String(p)
})

func saveBytes[T any](t *testing.T, p *Pool[T], codec visit.PayloadCodec[T], opts ...visit.Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Save(&buf, codec, opts...))
	return buf.Bytes()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, c := range []visit.Compression{visit.CompressionNone, visit.CompressionZstd, visit.CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			src := New[string]()
			var hs []Handle[string]
			for _, s := range []string{"a", "b", "c", "d", "e"} {
				hs = append(hs, src.Spawn(s))
			}
			src.Free(hs[1])
			src.Free(hs[3])
			src.Free(hs[0])

			data := saveBytes(t, src, stringCodec, visit.WithCompression(c))

			dst := New[string]()
			dst.Spawn("discarded")
			require.NoError(t, dst.Load(bytes.NewReader(data), stringCodec))
			require.NoError(t, dst.CheckInvariants())

			assert.Equal(t, src.Len(), dst.Len())
			assert.Equal(t, src.SlotCount(), dst.SlotCount())
			for h, v := range src.All() {
				got, ok := dst.Value(h)
				require.True(t, ok, "handle %v lost", h)
				assert.Equal(t, *v, got)
			}
			for _, h := range []Handle[string]{hs[0], hs[1], hs[3]} {
				assert.False(t, dst.IsValidHandle(h))
			}

			// Both pools reuse slots in the same order after the round trip.
			assert.Equal(t, src.GenerateFreeHandles(5), dst.GenerateFreeHandles(5))
			assert.Equal(t, src.Spawn("x"), dst.Spawn("x"))
		})
	}
}

func TestSaveLoadPreservesVacantGenerations(t *testing.T) {
	src := New[string]()
	h := src.Spawn("a")
	src.Free(h)
	h = src.Spawn("b")
	src.Free(h)

	dst := New[string]()
	require.NoError(t, dst.Load(bytes.NewReader(saveBytes(t, src, stringCodec)), stringCodec))

	next := dst.Spawn("c")
	assert.Equal(t, NewHandle[string](0, 3), next)
}

func TestSaveTurnsReservationsIntoFreeSlots(t *testing.T) {
	src := New[string]()
	src.Spawn("a")
	ticket, reserved := src.Reserve()
	defer ticket.Cancel()

	dst := New[string]()
	require.NoError(t, dst.Load(bytes.NewReader(saveBytes(t, src, stringCodec)), stringCodec))
	require.NoError(t, dst.CheckInvariants())

	assert.Equal(t, 0, dst.ReservedCount())
	assert.Equal(t, 1, dst.FreeCount())
	assert.False(t, dst.IsValidHandle(reserved))

	next := dst.Spawn("b")
	assert.Equal(t, reserved.Index(), next.Index())
	assert.Greater(t, next.Generation(), reserved.Generation())

	_, err := dst.PutReserved(ticket, "late")
	assert.ErrorIs(t, err, ErrForeignTicket)
}

func TestLoadEmptyPool(t *testing.T) {
	dst := New[string]()
	dst.Spawn("x")
	require.NoError(t, dst.Load(bytes.NewReader(saveBytes(t, New[string](), stringCodec)), stringCodec))
	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, 0, dst.SlotCount())
}

// writeBody frames a hand-built pool body.
func writeBody(t *testing.T, fn func(v *visit.Visitor)) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, visit.Encode(&buf, fn))
	return buf.Bytes()
}

func TestLoadRejectsInconsistentStreams(t *testing.T) {
	u32 := func(v *visit.Visitor, n uint32) { v.Uint32(&n) }
	u8 := func(v *visit.Visitor, n uint8) { v.Uint8(&n) }
	slot := func(v *visit.Visitor, tag uint8, generation uint32, payload string) {
		u8(v, tag)
		u32(v, generation)
		if tag == tagOccupied {
			v.String(&payload)
		}
	}

	cases := []struct {
		name string
		body func(v *visit.Visitor)
		want error
	}{
		{
			name: "free slot listed twice",
			body: func(v *visit.Visitor) {
				u32(v, 2)
				u32(v, 1)
				slot(v, tagOccupied, 1, "a")
				slot(v, tagVacant, 1, "")
				u32(v, 2)
				u32(v, 1)
				u32(v, 1)
			},
			want: ErrCorruptFreeList,
		},
		{
			name: "occupied slot on free list",
			body: func(v *visit.Visitor) {
				u32(v, 1)
				u32(v, 1)
				slot(v, tagOccupied, 1, "a")
				u32(v, 1)
				u32(v, 0)
			},
			want: ErrCorruptFreeList,
		},
		{
			name: "vacant slot missing from free list",
			body: func(v *visit.Visitor) {
				u32(v, 1)
				u32(v, 0)
				slot(v, tagVacant, 3, "")
				u32(v, 0)
			},
			want: ErrCorruptFreeList,
		},
		{
			name: "alive count mismatch",
			body: func(v *visit.Visitor) {
				u32(v, 1)
				u32(v, 2)
				slot(v, tagOccupied, 1, "a")
				u32(v, 0)
			},
			want: ErrCountMismatch,
		},
		{
			name: "more free entries than slots",
			body: func(v *visit.Visitor) {
				u32(v, 0)
				u32(v, 0)
				u32(v, 1)
			},
			want: ErrCorruptFreeList,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dst := New[string]()
			keep := dst.Spawn("kept")

			err := dst.Load(bytes.NewReader(writeBody(t, tc.body)), stringCodec)
			require.ErrorIs(t, err, tc.want)

			assert.True(t, dst.IsValidHandle(keep), "failed load must leave the pool untouched")
			assert.Equal(t, 1, dst.Len())
		})
	}
}

func TestLoadRejectsUnknownTag(t *testing.T) {
	data := writeBody(t, func(v *visit.Visitor) {
		n, tag, gen := uint32(1), uint8(7), uint32(1)
		v.Uint32(&n)
		v.Uint32(&n)
		v.Uint8(&tag)
		v.Uint32(&gen)
	})
	err := New[string]().Load(bytes.NewReader(data), stringCodec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tag")
}

func TestLoadRejectsTruncatedStream(t *testing.T) {
	src := New[string]()
	src.Spawn("a")
	data := saveBytes(t, src, stringCodec)

	err := New[string]().Load(bytes.NewReader(data[:len(data)-6]), stringCodec)
	assert.Error(t, err)
}

type sprite interface {
	visit.Visitable
	Kind() string
}

type player struct {
	Name  string
	Level uint32
	Pet   Handle[sprite]
}

func (p *player) Visit(v *visit.Visitor) {
	v.String(&p.Name)
	v.Uint32(&p.Level)
	p.Pet.Visit(v)
}

func (*player) Kind() string { return "player" }

type pet struct {
	Owner Handle[sprite]
}

func (p *pet) Visit(v *visit.Visitor) { p.Owner.Visit(v) }

func (*pet) Kind() string { return "pet" }

func TestSaveLoadPolymorphicPayloads(t *testing.T) {
	reg := visit.NewRegistry()
	reg.MustRegister("player", func() visit.Visitable { return &player{} })
	reg.MustRegister("pet", func() visit.Visitable { return &pet{} })

	src := New[sprite]()
	ticket, petHandle := src.Reserve()
	owner := src.Spawn(&player{Name: "hero", Level: 3, Pet: petHandle})
	_, err := src.PutReserved(ticket, &pet{Owner: owner})
	require.NoError(t, err)

	codec := visit.Polymorphic[sprite]()
	data := saveBytes(t, src, codec, visit.WithRegistry(reg), visit.WithCompression(visit.CompressionZstd))

	dst := New[sprite]()
	require.NoError(t, dst.Load(bytes.NewReader(data), codec, visit.WithRegistry(reg)))

	got, ok := dst.Value(owner)
	require.True(t, ok)
	hero, ok := got.(*player)
	require.True(t, ok)
	assert.Equal(t, "hero", hero.Name)
	assert.Equal(t, uint32(3), hero.Level)

	back, ok := dst.Value(hero.Pet)
	require.True(t, ok)
	assert.Equal(t, "pet", back.Kind())
	assert.Equal(t, owner, back.(*pet).Owner)
}

func TestVisitDirectly(t *testing.T) {
	src := New[string]()
	src.Spawn("a")

	var buf bytes.Buffer
	w := visit.NewWriter(&buf)
	src.Visit(w, stringCodec)
	require.NoError(t, w.Err())

	dst := New[string]()
	r := visit.NewReader(&buf)
	dst.Visit(r, stringCodec)
	require.NoError(t, r.Err())
	assert.Equal(t, 1, dst.Len())
}

func TestHandleVisitRoundTrip(t *testing.T) {
	h := NewHandle[int](12, 34)
	var buf bytes.Buffer
	w := visit.NewWriter(&buf)
	h.Visit(w)
	require.NoError(t, w.Err())
	assert.Equal(t, 8, buf.Len())

	var got Handle[int]
	r := visit.NewReader(&buf)
	got.Visit(r)
	require.NoError(t, r.Err())
	assert.Equal(t, h, got)
}

func TestLoadHugePayloadLengthStaysBounded(t *testing.T) {
	data := writeBody(t, func(v *visit.Visitor) {
		slots, alive, tag, gen := uint32(1), uint32(1), tagOccupied, uint32(1)
		v.Uint32(&slots)
		v.Uint32(&alive)
		v.Uint8(&tag)
		v.Uint32(&gen)
		n := uint32(visit.DefaultMaxLength)
		v.Uint32(&n)
	})

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	err := New[string]().Load(bytes.NewReader(data), stringCodec)
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(4<<20))
}
