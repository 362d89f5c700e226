package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/heap/region"
)

// liveBlock is a granted block and the byte written over it.
type liveBlock struct {
	layout  Layout
	pattern byte
}

// heapModel drives a BinAllocator and checks its invariants after every step.
type heapModel struct {
	t    testing.TB
	b    *BinAllocator
	r    *region.Region
	live map[uintptr]liveBlock
}

func newHeapModel(t testing.TB, size int) *heapModel {
	b, r := newTestBin(t, 0x100000, size)
	return &heapModel{t: t, b: b, r: r, live: make(map[uintptr]liveBlock)}
}

func (m *heapModel) alloc(l Layout, pattern byte) (uintptr, bool) {
	m.t.Helper()
	addr, err := m.b.Alloc(l)
	if err != nil {
		require.ErrorIs(m.t, err, ErrOutOfMemory)
		return 0, false
	}

	require.Zero(m.t, addr%l.Align, "address %#x not aligned to %d", addr, l.Align)
	require.True(m.t, m.r.Contains(addr, l.Size), "block [%#x,+%d) outside region", addr, l.Size)
	for other, blk := range m.live {
		disjoint := addr+l.Size <= other || other+blk.layout.Size <= addr
		require.True(m.t, disjoint, "block [%#x,+%d) overlaps live [%#x,+%d)",
			addr, l.Size, other, blk.layout.Size)
	}

	fill(m.t, m.r, addr, l.Size, pattern)
	m.live[addr] = liveBlock{layout: l, pattern: pattern}
	return addr, true
}

func (m *heapModel) free(addr uintptr) {
	blk := m.live[addr]
	delete(m.live, addr)
	m.b.Dealloc(addr, blk.layout)
}

func (m *heapModel) verifyContents() {
	m.t.Helper()
	for addr, blk := range m.live {
		requireFilled(m.t, m.r, addr, blk.layout.Size, blk.pattern)
	}
}

// Test_Fuzz_RandomAllocFree_Invariants performs random alloc/free and validates invariants.
func Test_Fuzz_RandomAllocFree_Invariants(t *testing.T) {
	m := newHeapModel(t, 1<<20)
	rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility

	var order []uintptr
	for i := 0; i < 5000; i++ {
		if rng.Intn(3) > 0 || len(order) == 0 {
			size := uintptr(1 + rng.Intn(2048))
			if rng.Intn(50) == 0 {
				size = uintptr(65536 + rng.Intn(8192)) // above the largest class
			}
			align := uintptr(1) << rng.Intn(8)
			if addr, ok := m.alloc(Layout{Size: size, Align: align}, byte(i)); ok {
				order = append(order, addr)
			}
			continue
		}

		idx := rng.Intn(len(order))
		addr := order[idx]
		order[idx] = order[len(order)-1]
		order = order[:len(order)-1]
		m.free(addr)
	}
	m.verifyContents()

	st := m.b.Stats()
	require.Positive(t, st.BinHits, "random workload should reuse freed blocks")
	t.Logf("stats: %+v, live=%d, %s", st, len(m.live), m.b)
}

// Test_Property_RefillAfterFree verifies freeing everything lets the same
// workload run again without touching the bump cursor.
func Test_Property_RefillAfterFree(t *testing.T) {
	m := newHeapModel(t, 1<<18)
	rng := rand.New(rand.NewSource(7))

	// Alignments stay <= 8 so every block, all multiples of 8 bytes, satisfies
	// every request of its class.
	layouts := make([]Layout, 200)
	for i := range layouts {
		layouts[i] = Layout{Size: uintptr(1 + rng.Intn(1024)), Align: uintptr(1) << rng.Intn(4)}
	}

	for i, l := range layouts {
		m.alloc(l, byte(i))
	}
	cursor := m.b.Bump().Cursor()

	for addr := range m.live {
		m.free(addr)
	}
	for i, l := range layouts {
		m.alloc(l, byte(i))
	}
	m.verifyContents()
	require.Equal(t, cursor, m.b.Bump().Cursor(), "second pass must be served from the bins")
}

// FuzzBinAllocator interprets the input as a stream of alloc/free commands.
func FuzzBinAllocator(f *testing.F) {
	f.Add([]byte{0x10, 0x03, 0x90, 0x10, 0x03})
	f.Add([]byte{0xff, 0xff, 0x00, 0x80, 0x01, 0x7f, 0x07})

	f.Fuzz(func(t *testing.T, data []byte) {
		m := newHeapModel(t, 1<<16)
		var order []uintptr
		for i := 0; i+1 < len(data); i += 2 {
			op, arg := data[i], data[i+1]
			if op&0x80 != 0 && len(order) > 0 {
				idx := int(arg) % len(order)
				addr := order[idx]
				order = append(order[:idx], order[idx+1:]...)
				m.free(addr)
				continue
			}
			size := uintptr(op&0x7f)*uintptr(arg) + 1
			align := uintptr(1) << (arg % 10)
			l := Layout{Size: size, Align: align}
			addr, err := m.b.Alloc(l)
			if err != nil {
				require.ErrorIs(t, err, ErrOutOfMemory)
				continue
			}
			require.Zero(t, addr%align)
			require.True(t, m.r.Contains(addr, size))
			for other, blk := range m.live {
				require.True(t, addr+size <= other || other+blk.layout.Size <= addr)
			}
			m.live[addr] = liveBlock{layout: l}
			order = append(order, addr)
		}
	})
}
