// Package alloc provides the two-tier heap allocator: a bump allocator and a
// size-classed bin allocator with intrusive free lists layered on top of it.
//
// # Overview
//
// The allocator manages a fixed address range [start, end) and keeps all of its
// bookkeeping inside that range. There is no metadata store: a free block holds
// the link to the next free block in its own first word.
//
// # Allocator Interface
//
// The core abstraction is the Allocator interface:
//
//   - Alloc(layout): return an address for layout.Size bytes aligned to layout.Align
//   - Dealloc(ptr, layout): hand the block back; layout must match the Alloc call
//
// # Implementations
//
// BinAllocator: production allocator with segregated free lists
//
//   - 14 power-of-two classes by default (8 B to 64 KiB)
//   - O(1) free, O(n) alignment-filtered scan on allocation
//   - Falls back to the bump allocator for fresh blocks and oversize requests
//
// BumpAllocator: append-only allocator of last resort
//
//   - Dealloc is a no-op (the block is leaked)
//
// # Usage Example
//
//	r, err := region.Reserve(16 << 20)
//	if err != nil {
//	    return err
//	}
//	b, err := alloc.NewBin(r, r.Start(), r.End(), nil)
//	if err != nil {
//	    return err
//	}
//
//	l, _ := alloc.NewLayout(256, 16)
//	addr, err := b.Alloc(l)
//	if err != nil {
//	    return err
//	}
//	buf, _ := r.Bytes(addr, l.Size)
//	copy(buf, payload)
//
//	b.Dealloc(addr, l)
//
// # Size Classes
//
// Class k holds blocks of 2^(k+3) bytes:
//
//	Class  0:     8 bytes
//	Class  1:    16 bytes
//	...
//	Class 13: 65536 bytes
//	(none)  : > 64 KiB, served and leaked by the bump allocator
//
// A request maps to the class of max(size, align) rounded up to a power of two.
// Fresh class blocks are always exactly the class size, so a freed block can
// serve any later request of the same class whose alignment its address meets.
//
// The smallest class must be able to hold a pointer. NewSizeClassTable rejects
// configurations that violate this with ErrClassTooSmall.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally, for example with heap.Locked.
package alloc
