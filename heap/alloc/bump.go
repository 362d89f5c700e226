package alloc

import (
	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/format"
)

// BumpAllocator serves memory by advancing a cursor through [start, end).
// It never reclaims: Dealloc is a no-op and freed blocks are leaked.
//
// Key characteristics:
//   - O(1) allocation: align the cursor, add the size, compare against end
//   - Zero bookkeeping: the cursor is the only state
//   - Fails closed: any overflow in the address arithmetic is ErrOutOfMemory
//
// It is the allocator of last resort behind BinAllocator.
type BumpAllocator struct {
	start  uintptr
	cursor uintptr
	end    uintptr
}

// NewBump creates a bump allocator over [start, end).
func NewBump(start, end uintptr) (*BumpAllocator, error) {
	if start > end {
		return nil, ErrBadRange
	}
	return &BumpAllocator{start: start, cursor: start, end: end}, nil
}

// Alloc returns the next address aligned to l.Align with l.Size bytes before end.
// On failure the cursor does not move.
func (ba *BumpAllocator) Alloc(l Layout) (uintptr, error) {
	// Caller contract forbids these, but a bad layout must not corrupt the cursor.
	if !l.Valid() {
		return 0, ErrInvalidLayout
	}

	addr, ok := format.CheckedAlignUp(ba.cursor, l.Align)
	if !ok {
		return 0, ErrOutOfMemory
	}
	next, ok := buf.AddOverflowSafe(addr, l.Size)
	if !ok || next > ba.end {
		return 0, ErrOutOfMemory
	}
	if next-addr < l.Size {
		return 0, ErrOutOfMemory
	}

	ba.cursor = next
	return addr, nil
}

// Dealloc is a no-op. The block stays allocated forever.
func (ba *BumpAllocator) Dealloc(uintptr, Layout) {}

// Start returns the first address of the managed range.
func (ba *BumpAllocator) Start() uintptr { return ba.start }

// End returns the address one past the managed range.
func (ba *BumpAllocator) End() uintptr { return ba.end }

// Cursor returns the address the next allocation will start from (before alignment).
func (ba *BumpAllocator) Cursor() uintptr { return ba.cursor }

// Used returns the number of bytes consumed, alignment padding included.
func (ba *BumpAllocator) Used() uintptr { return ba.cursor - ba.start }

// Remaining returns the number of bytes between the cursor and the end.
func (ba *BumpAllocator) Remaining() uintptr { return ba.end - ba.cursor }

// Compile-time interface check
var _ Allocator = (*BumpAllocator)(nil)
