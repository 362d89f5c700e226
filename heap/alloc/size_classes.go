package alloc

import (
	"fmt"

	"github.com/joshuapare/kheap/internal/format"
)

// SizeClassConfig defines the power-of-two size classes of a BinAllocator.
// Class k holds blocks of 1 << (MinShift + k) bytes.
type SizeClassConfig struct {
	// Name for this configuration (for logs and the CLI)
	Name string

	// MinShift is log2 of the smallest block size (3 → 8 bytes).
	MinShift uint

	// NumClasses is the number of classes; the largest block is 1 << (MinShift+NumClasses-1).
	NumClasses int

	// PointerSize is the link width the smallest class must hold.
	// Zero means the pointer size of the build target.
	PointerSize uintptr
}

// Predefined configurations.
var (
	// ConfigDefault: 8 B to 64 KiB in 14 classes.
	ConfigDefault = SizeClassConfig{
		Name:       "Default",
		MinShift:   3,
		NumClasses: 14,
	}

	// ConfigLarge: 16 B to 1 MiB in 17 classes, for heaps serving big buffers.
	ConfigLarge = SizeClassConfig{
		Name:       "Large",
		MinShift:   4,
		NumClasses: 17,
	}

	// DefaultConfig is used when no configuration is given.
	DefaultConfig = ConfigDefault
)

// SizeClassTable holds the block size of every class.
type SizeClassTable struct {
	config   SizeClassConfig
	sizes    []uintptr
	minShift int
}

// NewSizeClassTable validates config and computes its class sizes.
//
// Fails with ErrClassTooSmall when the smallest class cannot hold a free-list
// link, and with ErrBadConfig when there are no classes or the largest class
// does not fit in an address.
func NewSizeClassTable(config SizeClassConfig) (*SizeClassTable, error) {
	if config.NumClasses <= 0 {
		return nil, fmt.Errorf("%w: %d classes", ErrBadConfig, config.NumClasses)
	}
	if config.MinShift+uint(config.NumClasses) > uint(format.WordBits) {
		return nil, fmt.Errorf("%w: class 2^%d overflows a %d-bit address",
			ErrBadConfig, config.MinShift+uint(config.NumClasses)-1, format.WordBits)
	}

	ptr := config.PointerSize
	if ptr == 0 {
		ptr = format.PointerSize
	}
	if smallest := uintptr(1) << config.MinShift; smallest < ptr {
		return nil, fmt.Errorf("%w: smallest class is %d bytes, pointer is %d",
			ErrClassTooSmall, smallest, ptr)
	}

	table := &SizeClassTable{
		config:   config,
		sizes:    make([]uintptr, config.NumClasses),
		minShift: int(config.MinShift),
	}
	for k := range table.sizes {
		table.sizes[k] = uintptr(1) << (config.MinShift + uint(k))
	}
	return table, nil
}

// Map returns the class serving a request of size bytes aligned to align.
// ok is false when no class is large enough, including when rounding overflows.
//
// The class is chosen from max(size, align) so that a block of the class is
// big enough for any address padding the alignment implies.
func (t *SizeClassTable) Map(size, align uintptr) (int, bool) {
	n, ok := format.CheckedNextPowerOfTwo(max(size, align))
	if !ok {
		return -1, false
	}
	k := format.TrailingZeros(n) - t.minShift
	if k < 0 {
		k = 0
	}
	if k >= len(t.sizes) {
		return -1, false
	}
	return k, true
}

// Size returns the block size of class k.
func (t *SizeClassTable) Size(k int) uintptr { return t.sizes[k] }

// Largest returns the block size of the largest class.
func (t *SizeClassTable) Largest() uintptr { return t.sizes[len(t.sizes)-1] }

// NumClasses returns the number of size classes.
func (t *SizeClassTable) NumClasses() int { return len(t.sizes) }

// Config returns the configuration the table was built from.
func (t *SizeClassTable) Config() SizeClassConfig { return t.config }

// String returns a human-readable description of the size class table.
func (t *SizeClassTable) String() string {
	return fmt.Sprintf("%s (%d classes, %d..%d bytes)", t.config.Name, len(t.sizes), t.sizes[0], t.Largest())
}
