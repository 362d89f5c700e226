package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/format"
)

func walkAll(l *FreeList) []uintptr {
	var out []uintptr
	l.Walk(func(addr uintptr) bool {
		out = append(out, addr)
		return true
	})
	return out
}

// TestFreeList_PushPopLIFO verifies blocks come back in reverse push order.
func TestFreeList_PushPopLIFO(t *testing.T) {
	r := newTestRegion(t, 0x1000, 0x100)
	l := NewFreeList(r, 16)
	require.True(t, l.Empty())

	for _, addr := range []uintptr{0x1000, 0x1010, 0x1020} {
		l.Push(addr)
	}
	require.Equal(t, 3, l.Len())
	require.False(t, l.Empty())

	for _, want := range []uintptr{0x1020, 0x1010, 0x1000} {
		got, ok := l.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := l.Pop()
	assert.False(t, ok)
	assert.True(t, l.Empty())
	assert.Zero(t, l.Len())
}

// TestFreeList_LinkStoredInBlock verifies the link lives in the first word of the block.
func TestFreeList_LinkStoredInBlock(t *testing.T) {
	r := newTestRegion(t, 0x1000, 0x100)
	fill(t, r, 0x1000, 0x100, 0xCC)

	l := NewFreeList(r, 16)
	l.Push(0x1000)
	l.Push(0x1040)

	slot, ok := r.Bytes(0x1040, format.PointerSize)
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1000), buf.Word(slot), "newest node links to the previous head")

	// Bytes after the link slot are untouched.
	requireFilled(t, r, 0x1040+format.PointerSize, 16-format.PointerSize, 0xCC)
	requireFilled(t, r, 0x1000+format.PointerSize, 16-format.PointerSize, 0xCC)
}

// TestFreeList_ScanRemove verifies removal at head, middle and tail keeps the rest linked.
func TestFreeList_ScanRemove(t *testing.T) {
	r := newTestRegion(t, 0x1000, 0x100)
	l := NewFreeList(r, 8)
	for _, addr := range []uintptr{0x1000, 0x1008, 0x1010, 0x1018, 0x1020} {
		l.Push(addr)
	}
	require.Equal(t, []uintptr{0x1020, 0x1018, 0x1010, 0x1008, 0x1000}, walkAll(&l))

	eq := func(want uintptr) func(uintptr) bool {
		return func(a uintptr) bool { return a == want }
	}

	// middle
	got, ok := l.ScanRemove(eq(0x1010))
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1010), got)
	assert.Equal(t, []uintptr{0x1020, 0x1018, 0x1008, 0x1000}, walkAll(&l))

	// head
	got, ok = l.ScanRemove(eq(0x1020))
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1020), got)
	assert.Equal(t, []uintptr{0x1018, 0x1008, 0x1000}, walkAll(&l))

	// tail
	got, ok = l.ScanRemove(eq(0x1000))
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1000), got)
	assert.Equal(t, []uintptr{0x1018, 0x1008}, walkAll(&l))

	// miss
	_, ok = l.ScanRemove(eq(0x1030))
	assert.False(t, ok)
	assert.Equal(t, 2, l.Len())

	// first match wins
	got, ok = l.ScanRemove(func(uintptr) bool { return true })
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1018), got)
	assert.Equal(t, 1, l.Len())
}

// TestFreeList_ScanRemoveAligned verifies the alignment filter the bin allocator uses.
func TestFreeList_ScanRemoveAligned(t *testing.T) {
	r := newTestRegion(t, 0x1000, 0x100)
	l := NewFreeList(r, 16)
	l.Push(0x1020)
	l.Push(0x1008)
	l.Push(0x1018)

	got, ok := l.ScanRemove(func(a uintptr) bool { return a%16 == 0 })
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1020), got)
	assert.Equal(t, []uintptr{0x1018, 0x1008}, walkAll(&l))
}

// TestFreeList_WalkStopsEarly verifies Walk honours a false return.
func TestFreeList_WalkStopsEarly(t *testing.T) {
	r := newTestRegion(t, 0x1000, 0x100)
	l := NewFreeList(r, 8)
	for i := 0; i < 4; i++ {
		l.Push(0x1000 + uintptr(i)*8)
	}
	visits := 0
	l.Walk(func(uintptr) bool {
		visits++
		return visits < 2
	})
	assert.Equal(t, 2, visits)
}

// TestFreeList_PushRejectsSmallBlocks verifies the link-width precondition.
func TestFreeList_PushRejectsSmallBlocks(t *testing.T) {
	r := newTestRegion(t, 0x1000, 0x100)
	l := NewFreeList(r, format.PointerSize/2)

	require.Panics(t, func() { l.Push(0x1000) })
	assert.True(t, l.Empty(), "rejected push must not link the block")
	requireFilled(t, r, 0x1000, format.PointerSize, 0)
}

// TestFreeList_PushOutsideMemory verifies a foreign address is refused.
func TestFreeList_PushOutsideMemory(t *testing.T) {
	r := newTestRegion(t, 0x1000, 0x100)
	l := NewFreeList(r, 16)

	require.Panics(t, func() { l.Push(0x2000) })
	require.Panics(t, func() { l.Push(0x1100 - format.PointerSize + 1) })
	assert.True(t, l.Empty())
}
