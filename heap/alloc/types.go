package alloc

import (
	"fmt"

	"github.com/joshuapare/kheap/internal/format"
)

// Layout is a (size, alignment) pair describing a memory request.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout returns the layout for size bytes aligned to align.
// Returns ErrInvalidLayout if size is zero or align is not a power of two.
func NewLayout(size, align uintptr) (Layout, error) {
	l := Layout{Size: size, Align: align}
	if !l.Valid() {
		return Layout{}, fmt.Errorf("%w: size=%d align=%d", ErrInvalidLayout, size, align)
	}
	return l, nil
}

// Valid reports whether the layout has a non-zero size and a power-of-two alignment.
func (l Layout) Valid() bool {
	return l.Size != 0 && format.IsPowerOfTwo(l.Align)
}

func (l Layout) String() string {
	return fmt.Sprintf("{size=%d align=%d}", l.Size, l.Align)
}

// Allocator is the heap capability consumed by the rest of the kernel.
//
// Implementations:
//   - BinAllocator: size-classed free lists over a bump allocator
//   - BumpAllocator: append-only, Dealloc leaks
//
// Implementations are not safe for concurrent use; see heap.Locked.
type Allocator interface {
	// Alloc returns the address of a block of at least l.Size bytes aligned to
	// l.Align. Errors are ErrInvalidLayout or ErrOutOfMemory.
	Alloc(l Layout) (uintptr, error)

	// Dealloc returns a block to the allocator. ptr and l must match a prior
	// successful Alloc; a mismatch is undefined behavior and is not detected.
	Dealloc(ptr uintptr, l Layout)
}

// Memory gives access to the bytes behind heap addresses.
// *region.Region implements it.
type Memory interface {
	// Bytes returns the n bytes at addr, or ok = false if they are not backed.
	Bytes(addr, n uintptr) ([]byte, bool)
}
