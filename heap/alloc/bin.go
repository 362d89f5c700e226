package alloc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Runtime debug flag for allocation logging - controlled by KHEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("KHEAP_LOG_ALLOC") != ""

// Stats holds allocator counters.
type Stats struct {
	AllocCalls     uint64 // Alloc invocations, including rejected ones
	DeallocCalls   uint64 // Dealloc invocations
	BinHits        uint64 // allocations served from a free list
	BumpFallbacks  uint64 // class allocations that had to take a fresh block
	LargeAllocs    uint64 // requests above the largest class, sent straight to bump
	OutOfMemory    uint64 // requests that failed with ErrOutOfMemory
	InvalidLayouts uint64 // requests rejected with ErrInvalidLayout
	LeakedBytes    uint64 // bytes of large blocks freed into the bump allocator
}

// Option configures a BinAllocator.
type Option func(*BinAllocator)

// WithLogger sets the logger used for fallback and exhaustion events.
// Events are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(b *BinAllocator) { b.log = l }
}

// BinAllocator routes each request to a power-of-two size class and serves it
// from that class's intrusive free list, falling back to a BumpAllocator.
//
//   - Class hit: the first free block whose address satisfies the alignment
//   - Class miss: one fresh block of exactly the class size from the bump allocator
//   - No class: the original layout goes straight to the bump allocator, and
//     Dealloc of such a block leaks it
//
// Because fresh class blocks are always the class size, a freed block can serve
// any later request of the same class.
//
// BinAllocator is not safe for concurrent use.
type BinAllocator struct {
	bump  *BumpAllocator
	table *SizeClassTable
	bins  []FreeList
	stats Stats
	log   *slog.Logger
}

// NewBin creates a bin allocator over [start, end), storing free-list links in mem.
//
// Parameters:
//   - mem: memory backing [start, end); *region.Region satisfies it
//   - start, end: the managed range, start <= end
//   - config: size class configuration (use nil for DefaultConfig)
func NewBin(mem Memory, start, end uintptr, config *SizeClassConfig, opts ...Option) (*BinAllocator, error) {
	if config == nil {
		config = &DefaultConfig
	}
	table, err := NewSizeClassTable(*config)
	if err != nil {
		return nil, err
	}

	bump, err := NewBump(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: [%#x, %#x)", err, start, end)
	}
	if _, ok := mem.Bytes(start, end-start); !ok {
		return nil, fmt.Errorf("%w: [%#x, %#x) is not backed by memory", ErrBadRange, start, end)
	}

	b := &BinAllocator{
		bump:  bump,
		table: table,
		bins:  make([]FreeList, table.NumClasses()),
	}
	for k := range b.bins {
		b.bins[k] = NewFreeList(mem, table.Size(k))
	}
	if logAlloc {
		b.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Alloc returns a block of at least l.Size bytes aligned to l.Align.
//
// The returned block's contents are not zeroed. Errors:
//   - ErrInvalidLayout: zero size or non power-of-two alignment
//   - ErrOutOfMemory: no free block fits and the bump allocator is exhausted
func (b *BinAllocator) Alloc(l Layout) (uintptr, error) {
	b.stats.AllocCalls++

	// Prevent a badly constructed Layout from reaching the class math.
	if !l.Valid() {
		b.stats.InvalidLayouts++
		return 0, ErrInvalidLayout
	}

	k, ok := b.table.Map(l.Size, l.Align)
	if !ok {
		b.stats.LargeAllocs++
		return b.allocFromFallback(l)
	}
	return b.allocFromBin(k, l.Align)
}

// allocFromBin serves class k, which is assumed valid for the request.
func (b *BinAllocator) allocFromBin(k int, align uintptr) (uintptr, error) {
	// Can't take the head blindly: a block may be less aligned than the request.
	mask := align - 1
	addr, ok := b.bins[k].ScanRemove(func(a uintptr) bool { return a&mask == 0 })
	if ok {
		b.stats.BinHits++
		return addr, nil
	}

	b.stats.BumpFallbacks++
	if b.log != nil && b.log.Enabled(context.Background(), slog.LevelDebug) {
		b.log.Debug("bin miss, taking fresh block",
			"class", k, "block", b.table.Size(k), "align", align, "cursor", b.bump.Cursor())
	}
	return b.allocFromFallback(Layout{Size: b.table.Size(k), Align: align})
}

func (b *BinAllocator) allocFromFallback(l Layout) (uintptr, error) {
	addr, err := b.bump.Alloc(l)
	if err != nil {
		b.stats.OutOfMemory++
		if b.log != nil && b.log.Enabled(context.Background(), slog.LevelDebug) {
			b.log.Debug("heap exhausted",
				"size", l.Size, "align", l.Align, "remaining", b.bump.Remaining())
		}
		return 0, err
	}
	return addr, nil
}

// Dealloc returns the block at ptr to the free list of its size class, or leaks
// it in the bump allocator when l is larger than every class.
//
// ptr and l must match a prior successful Alloc. A mismatch is undefined
// behavior and is not detected.
func (b *BinAllocator) Dealloc(ptr uintptr, l Layout) {
	b.stats.DeallocCalls++
	if !l.Valid() {
		return
	}

	k, ok := b.table.Map(l.Size, l.Align)
	if !ok {
		b.stats.LeakedBytes += uint64(l.Size)
		b.bump.Dealloc(ptr, l)
		return
	}
	b.bins[k].Push(ptr)
}

// Stats returns a snapshot of the allocator counters.
func (b *BinAllocator) Stats() Stats { return b.stats }

// Classes returns the size class table.
func (b *BinAllocator) Classes() *SizeClassTable { return b.table }

// Bump returns the fallback allocator, for inspection of the cursor.
func (b *BinAllocator) Bump() *BumpAllocator { return b.bump }

// FreeCounts returns the number of free blocks in each class.
func (b *BinAllocator) FreeCounts() []int {
	counts := make([]int, len(b.bins))
	for k := range b.bins {
		counts[k] = b.bins[k].Len()
	}
	return counts
}

// FreeBlocks returns the free blocks of class k, head first.
func (b *BinAllocator) FreeBlocks(k int) []uintptr {
	out := make([]uintptr, 0, b.bins[k].Len())
	b.bins[k].Walk(func(addr uintptr) bool {
		out = append(out, addr)
		return true
	})
	return out
}

// String lists the non-empty bins.
func (b *BinAllocator) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bins[%s cursor=%#x remaining=%d", b.table.config.Name, b.bump.Cursor(), b.bump.Remaining())
	for k := range b.bins {
		if n := b.bins[k].Len(); n > 0 {
			fmt.Fprintf(&sb, " %d:%dB×%d", k, b.table.Size(k), n)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// Compile-time interface check
var _ Allocator = (*BinAllocator)(nil)
