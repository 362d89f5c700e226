package alloc

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/heap/region"
)

const (
	// scenarioStart and scenarioEnd are the region used by the worked example.
	scenarioStart = 0x1000
	scenarioEnd   = 0x2000
)

// newTestRegion creates a zeroed region of size bytes mapped at base.
func newTestRegion(t testing.TB, base uintptr, size int) *region.Region {
	t.Helper()
	r, err := region.New(base, make([]byte, size))
	require.NoError(t, err)
	return r
}

// newTestBin creates a bin allocator over a fresh region [base, base+size).
func newTestBin(t testing.TB, base uintptr, size int, opts ...Option) (*BinAllocator, *region.Region) {
	t.Helper()
	r := newTestRegion(t, base, size)
	b, err := NewBin(r, r.Start(), r.End(), nil, opts...)
	require.NoError(t, err)
	return b, r
}

// mustLayout builds a layout and fails the test if it is invalid.
func mustLayout(t testing.TB, size, align uintptr) Layout {
	t.Helper()
	l, err := NewLayout(size, align)
	require.NoError(t, err)
	return l
}

// span is a granted [addr, addr+size) range.
type span struct {
	addr, size uintptr
}

// requireDisjoint fails if any two spans overlap.
func requireDisjoint(t testing.TB, spans []span) {
	t.Helper()
	sorted := append([]span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].addr < sorted[j].addr })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		require.LessOrEqual(t, prev.addr+prev.size, cur.addr,
			"spans overlap: [%#x,+%d) and [%#x,+%d)", prev.addr, prev.size, cur.addr, cur.size)
	}
}

// fill writes pattern over the n bytes at addr.
func fill(t testing.TB, r *region.Region, addr, n uintptr, pattern byte) {
	t.Helper()
	b, ok := r.Bytes(addr, n)
	require.True(t, ok, "block [%#x,+%d) outside region", addr, n)
	for i := range b {
		b[i] = pattern
	}
}

// requireFilled checks the n bytes at addr all equal pattern.
func requireFilled(t testing.TB, r *region.Region, addr, n uintptr, pattern byte) {
	t.Helper()
	b, ok := r.Bytes(addr, n)
	require.True(t, ok)
	for i := range b {
		require.Equal(t, pattern, b[i], "block %#x corrupted at offset %d", addr, i)
	}
}
