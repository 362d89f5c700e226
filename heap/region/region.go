// Package region provides the Memory Region a heap allocator owns: a
// contiguous address range [start, end) together with the bytes that back it.
//
// Addresses handed out by the allocators are plain uintptr values inside the
// range. A region built with Reserve is backed by an anonymous mapping, so its
// addresses are real; a region built with New maps a caller buffer at any base
// address, which keeps tests and trace replays deterministic.
package region

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/joshuapare/kheap/internal/buf"
)

var (
	// ErrBadRegion indicates an inverted or overflowing address range.
	ErrBadRegion = errors.New("region: invalid address range")

	// ErrClosed indicates use of a region after Close.
	ErrClosed = errors.New("region: closed")
)

// Region is an immutable address range [start, end) backed by memory.
// It is exclusively owned by one allocator for its whole lifetime.
type Region struct {
	base    uintptr
	mem     []byte
	release func() error
	closed  bool
}

// New returns a region that exposes mem at addresses [base, base+len(mem)).
func New(base uintptr, mem []byte) (*Region, error) {
	if _, ok := buf.AddOverflowSafe(base, uintptr(len(mem))); !ok {
		return nil, errors.Wrapf(ErrBadRegion, "base %#x + %d bytes overflows", base, len(mem))
	}
	return &Region{base: base, mem: mem}, nil
}

// Reserve maps size bytes of anonymous, zeroed memory and returns a region whose
// addresses are the real addresses of the mapping. Close releases the mapping.
func Reserve(size int) (*Region, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrBadRegion, "reserve size %d", size)
	}
	mem, release, err := reserve(size)
	if err != nil {
		return nil, errors.Wrapf(err, "region: reserve %d bytes", size)
	}
	return &Region{
		base:    uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
		mem:     mem,
		release: release,
	}, nil
}

// Carve returns the sub-region [start, end) sharing r's memory.
// The carved region does not own the mapping; closing it is a no-op.
func (r *Region) Carve(start, end uintptr) (*Region, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if start > end || !r.Contains(start, end-start) {
		return nil, errors.Wrapf(ErrBadRegion, "carve [%#x, %#x) outside [%#x, %#x)",
			start, end, r.Start(), r.End())
	}
	lo := int(start - r.base)
	hi := int(end - r.base)
	return &Region{base: start, mem: r.mem[lo:hi:hi]}, nil
}

// Start returns the first address of the region.
func (r *Region) Start() uintptr { return r.base }

// End returns the address one past the last byte of the region.
func (r *Region) End() uintptr { return r.base + uintptr(len(r.mem)) }

// Len returns the size of the region in bytes.
func (r *Region) Len() int { return len(r.mem) }

// Contains reports whether [addr, addr+n) lies inside the region.
func (r *Region) Contains(addr, n uintptr) bool {
	return buf.RangeWithin(addr, n, r.Start(), r.End())
}

// Bytes returns the n bytes at addr, or ok = false if they fall outside the region.
// The slice aliases region memory; it is valid until Close.
func (r *Region) Bytes(addr, n uintptr) ([]byte, bool) {
	if !r.Contains(addr, n) {
		return nil, false
	}
	return buf.Slice(r.mem, int(addr-r.base), int(n))
}

// Close releases a reserved mapping. Regions created with New or Carve only
// drop their reference to the memory.
func (r *Region) Close() error {
	release := r.release
	r.release = nil
	r.mem = nil
	r.closed = true
	if release == nil {
		return nil
	}
	return release()
}
