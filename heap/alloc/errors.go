package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the bump cursor would pass the region end, or that
	// the address arithmetic for the request would overflow.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidLayout indicates a zero size or an alignment that is not a power of two.
	ErrInvalidLayout = errors.New("alloc: invalid layout")

	// ErrClassTooSmall indicates a size class whose blocks cannot hold a free-list link.
	ErrClassTooSmall = errors.New("alloc: size class smaller than a pointer")

	// ErrBadConfig indicates a size class configuration that cannot be built.
	ErrBadConfig = errors.New("alloc: bad size class config")

	// ErrBadRange indicates an allocator range with start > end or without backing memory.
	ErrBadRange = errors.New("alloc: bad address range")
)
