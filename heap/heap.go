package heap

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/joshuapare/kheap/heap/alloc"
	"github.com/joshuapare/kheap/heap/region"
)

// Config describes the heap to build.
type Config struct {
	// Size is the number of bytes to reserve.
	Size int

	// Base, when non-zero, maps the heap at this address over a Go buffer
	// instead of reserving real memory. Addresses are then virtual and
	// deterministic, which is what trace replay and tests want.
	Base uintptr

	// CarveOffset is the number of bytes at the start of the reservation kept
	// out of the heap (e.g. a boot area owned by someone else).
	CarveOffset int

	// Classes is the size class configuration (zero value means alloc.DefaultConfig).
	Classes alloc.SizeClassConfig

	// Logger receives allocator debug events. Nil disables them.
	Logger *slog.Logger
}

// Heap is a lock-guarded bin allocator over its own memory region.
type Heap struct {
	lk       *Locked
	bin      *alloc.BinAllocator
	reserved *region.Region
	region   *region.Region
	closed   bool // guarded by lk
}

// Snapshot is a consistent view of the heap's counters and free lists.
type Snapshot struct {
	Stats      alloc.Stats
	FreeCounts []int
	ClassSizes []uintptr
	Start      uintptr
	End        uintptr
	Used       uintptr
	Remaining  uintptr
}

// New reserves memory per cfg and builds the heap over it.
func New(cfg Config) (*Heap, error) {
	if cfg.Size <= 0 {
		return nil, errors.Wrapf(region.ErrBadRegion, "heap size %d", cfg.Size)
	}
	if cfg.CarveOffset < 0 || cfg.CarveOffset > cfg.Size {
		return nil, errors.Wrapf(region.ErrBadRegion, "carve offset %d outside %d-byte reservation",
			cfg.CarveOffset, cfg.Size)
	}

	var (
		reserved *region.Region
		err      error
	)
	if cfg.Base != 0 {
		reserved, err = region.New(cfg.Base, make([]byte, cfg.Size))
	} else {
		reserved, err = region.Reserve(cfg.Size)
	}
	if err != nil {
		return nil, errors.Wrap(err, "heap: reserve")
	}

	r, err := reserved.Carve(reserved.Start()+uintptr(cfg.CarveOffset), reserved.End())
	if err != nil {
		_ = reserved.Close()
		return nil, errors.Wrap(err, "heap: carve")
	}

	classes := cfg.Classes
	if classes.NumClasses == 0 {
		classes = alloc.DefaultConfig
	}
	var opts []alloc.Option
	if cfg.Logger != nil {
		opts = append(opts, alloc.WithLogger(cfg.Logger))
	}
	bin, err := alloc.NewBin(r, r.Start(), r.End(), &classes, opts...)
	if err != nil {
		_ = reserved.Close()
		return nil, errors.Wrapf(err, "heap: size classes %q", classes.Name)
	}

	return &Heap{
		lk:       NewLocked(bin),
		bin:      bin,
		reserved: reserved,
		region:   r,
	}, nil
}

// Alloc returns size bytes aligned to align.
// Errors are alloc.ErrInvalidLayout, alloc.ErrOutOfMemory and, after Close,
// region.ErrClosed.
func (h *Heap) Alloc(size, align uintptr) (uintptr, error) {
	return h.alloc(alloc.Layout{Size: size, Align: align})
}

// Dealloc frees a block returned by Alloc(size, align).
// Passing a different size or alignment is undefined behavior.
// After Close it does nothing.
func (h *Heap) Dealloc(ptr, size, align uintptr) {
	h.dealloc(ptr, alloc.Layout{Size: size, Align: align})
}

// Allocator exposes the heap as a lock-guarded alloc.Allocator that stops
// serving requests once the heap is closed.
func (h *Heap) Allocator() alloc.Allocator { return heapAllocator{h} }

func (h *Heap) alloc(l alloc.Layout) (addr uintptr, err error) {
	h.lk.With(func(a alloc.Allocator) {
		if h.closed {
			err = region.ErrClosed
			return
		}
		addr, err = a.Alloc(l)
	})
	return addr, err
}

func (h *Heap) dealloc(ptr uintptr, l alloc.Layout) {
	h.lk.With(func(a alloc.Allocator) {
		if !h.closed {
			a.Dealloc(ptr, l)
		}
	})
}

type heapAllocator struct{ h *Heap }

func (ha heapAllocator) Alloc(l alloc.Layout) (uintptr, error) { return ha.h.alloc(l) }

func (ha heapAllocator) Dealloc(ptr uintptr, l alloc.Layout) { ha.h.dealloc(ptr, l) }

var _ alloc.Allocator = heapAllocator{}

// Bytes returns the n bytes at addr. The slice is valid until the block is freed.
func (h *Heap) Bytes(addr, n uintptr) ([]byte, bool) {
	return h.region.Bytes(addr, n)
}

// Start returns the first heap address.
func (h *Heap) Start() uintptr { return h.region.Start() }

// End returns the address one past the heap.
func (h *Heap) End() uintptr { return h.region.End() }

// Classes returns the size class table.
func (h *Heap) Classes() *alloc.SizeClassTable { return h.bin.Classes() }

// Stats returns the allocator counters.
func (h *Heap) Stats() alloc.Stats {
	var st alloc.Stats
	h.lk.With(func(alloc.Allocator) { st = h.bin.Stats() })
	return st
}

// Snapshot returns the heap counters taken under the lock.
func (h *Heap) Snapshot() Snapshot {
	var s Snapshot
	h.lk.With(func(alloc.Allocator) {
		bump := h.bin.Bump()
		s = Snapshot{
			Stats:      h.bin.Stats(),
			FreeCounts: h.bin.FreeCounts(),
			Start:      bump.Start(),
			End:        bump.End(),
			Used:       bump.Used(),
			Remaining:  bump.Remaining(),
		}
	})
	table := h.bin.Classes()
	s.ClassSizes = make([]uintptr, table.NumClasses())
	for k := range s.ClassSizes {
		s.ClassSizes[k] = table.Size(k)
	}
	return s
}

// String describes the heap's bins.
func (h *Heap) String() string {
	var s string
	h.lk.With(func(alloc.Allocator) { s = h.bin.String() })
	return s
}

// FreeBlocks returns the free blocks of class k, head first.
func (h *Heap) FreeBlocks(k int) []uintptr {
	var out []uintptr
	h.lk.With(func(alloc.Allocator) {
		// Walking a list reads links out of the released memory.
		if !h.closed {
			out = h.bin.FreeBlocks(k)
		}
	})
	return out
}

// Close releases the reserved memory. Outstanding addresses become invalid,
// and later allocations fail with region.ErrClosed. Closing twice is a no-op.
func (h *Heap) Close() error {
	var err error
	h.lk.With(func(alloc.Allocator) {
		if h.closed {
			return
		}
		h.closed = true
		if err = h.region.Close(); err != nil {
			return
		}
		err = h.reserved.Close()
	})
	return err
}
