// Package format holds the address arithmetic shared by the heap packages:
// alignment helpers, power-of-two rounding and the machine word size. The goal
// is to keep these checks allocation-free and independent from the allocators
// so higher-level packages can rely on them in hot paths.
package format

import "unsafe"

const (
	// PointerSize is the size in bytes of a machine pointer on the build target.
	// An intrusive free-list link occupies exactly this many bytes.
	PointerSize = unsafe.Sizeof(uintptr(0))

	// WordBits is the width of an address in bits.
	WordBits = PointerSize * 8
)

// Size units used by size-class tables and configuration.
const (
	KiB = 1 << 10
	MiB = 1 << 20
	GiB = 1 << 30
)
